package api

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/rs/zerolog"

	"github.com/zenxianie/parkctl/internal/logger"
)

// NewCachingTransport builds the client transport: an RFC 7234 cache in
// front of the network, wrapped with request logging. The parking-lot
// catalogue endpoints set Cache-Control headers, so list calls between
// dashboard refreshes are served locally.
func NewCachingTransport(log zerolog.Logger, cacheDir string) http.RoundTripper {
	var transport *httpcache.Transport
	if cacheDir == "" {
		transport = httpcache.NewTransport(httpcache.NewMemoryCache())
	} else {
		transport = httpcache.NewTransport(diskcache.New(cacheDir))
	}

	transport.Transport = logger.NewHTTPRequests(log, nil)

	return transport
}
