package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/stacklok/usb-ids-registry/internal/httpclient"
)

// urlSourceHandler fetches registry text over HTTP(S)
type urlSourceHandler struct {
	name     string
	endpoint string
	client   httpclient.Client
}

// NewURLSourceHandler creates a handler for one HTTP(S) endpoint. An empty
// name defaults to the endpoint.
func NewURLSourceHandler(name, endpoint string, client httpclient.Client) SourceHandler {
	if name == "" {
		name = endpoint
	}
	return &urlSourceHandler{
		name:     name,
		endpoint: endpoint,
		client:   client,
	}
}

// NewURLSources builds one handler per URL, in the given order
func NewURLSources(client httpclient.Client, urls ...string) []SourceHandler {
	handlers := make([]SourceHandler, 0, len(urls))
	for _, u := range urls {
		handlers = append(handlers, NewURLSourceHandler("", u, client))
	}
	return handlers
}

// Name returns the source name
func (h *urlSourceHandler) Name() string {
	return h.name
}

// Fetch performs a single GET against the endpoint. Errors are the
// *httpclient.HTTPError or *httpclient.TransportError returned by the client.
func (h *urlSourceHandler) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	data, err := h.client.Get(ctx, h.endpoint)
	if err != nil {
		return nil, err
	}

	slog.Debug("Downloaded registry text",
		"source", h.name,
		"url", h.endpoint,
		"bytes", len(data),
		"duration", time.Since(start).String())
	return data, nil
}
