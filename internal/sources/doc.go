// Package sources provides the candidates the resolver tries in order.
//
// A SourceHandler retrieves raw usb.ids text from one location and knows
// nothing about parsing or fallback. Implementations:
//   - urlSourceHandler: a single HTTP(S) GET through httpclient.Client
//   - gitSourceHandler: a shallow in-memory clone that reads one file
//   - fileSourceHandler: a file on the local filesystem
//
// The factory builds handlers from config.SourceConfig entries, and
// NewURLSources builds them from a plain list of URLs.
package sources
