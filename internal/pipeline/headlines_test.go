package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLink(t *testing.T) {
	const base = "https://news.ycombinator.com/"

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"item link", base, "item?id=123", "https://news.ycombinator.com/item?id=123"},
		{"absolute link unchanged", base, "https://example.com/x", "https://example.com/x"},
		{"plain http unchanged", base, "http://example.com/", "http://example.com/"},
		{"relative path", base, "foo/bar", "https://news.ycombinator.com/foo/bar"},
		{"leading slash", base, "/from?site=x", "https://news.ycombinator.com/from?site=x"},
		{"base without trailing slash", "https://news.ycombinator.com", "item?id=9", "https://news.ycombinator.com/item?id=9"},
		{"empty href", base, "", ""},
		{"whitespace href", base, "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLink(tt.base, tt.href))
		})
	}
}

func TestNewHeadlineSource(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("frontpage over http", func(t *testing.T) {
		sc := cfg.Source
		sc.Fetcher = FetcherHTTP
		src, err := NewHeadlineSource(sc, DefaultHeadlineConfig())
		require.NoError(t, err)

		fp, ok := src.(*FrontPageSource)
		require.True(t, ok)
		assert.IsType(t, &HTTPFetcher{}, fp.fetcher)
	})

	t.Run("frontpage in browser", func(t *testing.T) {
		src, err := NewHeadlineSource(cfg.Source, DefaultHeadlineConfig())
		require.NoError(t, err)

		fp, ok := src.(*FrontPageSource)
		require.True(t, ok)
		bf, ok := fp.fetcher.(*BrowserFetcher)
		require.True(t, ok)
		assert.False(t, bf.Headless)
		assert.Equal(t, cfg.Source.WaitTimeout, bf.Timeout)
	})

	t.Run("rss", func(t *testing.T) {
		sc := cfg.Source
		sc.Name = SourceRSS
		src, err := NewHeadlineSource(sc, DefaultHeadlineConfig())
		require.NoError(t, err)
		assert.IsType(t, &RSSSource{}, src)
	})

	t.Run("unknown source", func(t *testing.T) {
		sc := cfg.Source
		sc.Name = "lobsters"
		_, err := NewHeadlineSource(sc, DefaultHeadlineConfig())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownSource))
	})

	t.Run("unknown fetcher", func(t *testing.T) {
		sc := cfg.Source
		sc.Fetcher = "curl"
		_, err := NewHeadlineSource(sc, DefaultHeadlineConfig())
		require.ErrorIs(t, err, ErrInvalidFetcher)
	})
}
