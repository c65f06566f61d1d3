package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeyIgnoresParameterOrder(t *testing.T) {
	first := url.Values{}
	first.Set("page", "1")
	first.Set("language", "en-US")
	first.Set("sort_by", "popularity.desc")

	second := url.Values{}
	second.Set("sort_by", "popularity.desc")
	second.Set("language", "en-US")
	second.Set("page", "1")

	require.Equal(t, DeriveKey("/discover/movie", first), DeriveKey("/discover/movie", second))
}

func TestDeriveKeyDistinguishesRequests(t *testing.T) {
	params := url.Values{"page": {"1"}}

	require.NotEqual(t, DeriveKey("/discover/movie", params), DeriveKey("/discover/tv", params))

	other := url.Values{"page": {"2"}}
	require.NotEqual(t, DeriveKey("/discover/movie", params), DeriveKey("/discover/movie", other))
}

func TestDeriveKeyIsDeterministicAndFixedLength(t *testing.T) {
	params := url.Values{"query": {"blade runner"}, "page": {"1"}}

	key := DeriveKey("/search/movie", params)
	require.Len(t, key, 64)
	require.Equal(t, key, DeriveKey("/search/movie", params))

	empty := DeriveKey("/trending/movie/day", url.Values{})
	require.Len(t, empty, 64)
	require.Equal(t, empty, DeriveKey("/trending/movie/day", nil))
}
