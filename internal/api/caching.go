package api

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingTransport returns a base transport that caches GET responses
// according to their Cache-Control headers. With an empty cacheDir the cache
// is in-memory only; otherwise entries persist on disk across runs.
func NewCachingTransport(cacheDir string) http.RoundTripper {
	if cacheDir == "" {
		return httpcache.NewMemoryCacheTransport()
	}
	return httpcache.NewTransport(diskcache.New(cacheDir))
}
