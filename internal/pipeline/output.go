// =============================================================================
// output.go - ファイル出力
// =============================================================================
//
// 翻訳結果をCSV（必須）とJSON（任意）に書き出します。どちらも毎回上書きです。
//
// 【CSVフォーマット】
//   - 先頭にUTF-8のBOM（EF BB BF）。Excelで開いた時の文字化け対策
//   - ヘッダー行: Title,Link,Chinese Translation
//   - 改行コードはCRLF
//
// =============================================================================
package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
)

// utf8BOM はUTF-8のバイトオーダーマーク
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVHeader はCSVのヘッダー行
var CSVHeader = []string{"Title", "Link", "Chinese Translation"}

// WriteCSV は見出しをCSVファイルに書き出す
//
// ファイルが存在する場合は無条件に上書きする。
func WriteCSV(path string, headlines []Headline) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true

	if err := w.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, h := range headlines {
		if err := w.Write([]string{h.Title, h.Link, h.TranslatedTitle}); err != nil {
			return fmt.Errorf("write row %d: %w", h.Rank, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON は見出しをJSON配列としてファイルに書き出す
func WriteJSON(path string, headlines []Headline) error {
	if headlines == nil {
		headlines = []Headline{}
	}
	if err := writeJSONFile(path, headlines); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
