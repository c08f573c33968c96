package sources

import (
	"fmt"
	"net/url"

	"github.com/stacklok/usb-ids-registry/internal/config"
	"github.com/stacklok/usb-ids-registry/internal/git"
	"github.com/stacklok/usb-ids-registry/internal/httpclient"
)

// defaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type defaultSourceHandlerFactory struct {
	httpClient httpclient.Client
	gitClient  git.Client
}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory
func NewSourceHandlerFactory(httpClient httpclient.Client, gitClient git.Client) SourceHandlerFactory {
	return &defaultSourceHandlerFactory{
		httpClient: httpClient,
		gitClient:  gitClient,
	}
}

// CreateHandler creates a source handler for the given source. file://
// endpoints are served by the file handler.
func (f *defaultSourceHandlerFactory) CreateHandler(cfg *config.SourceConfig) (SourceHandler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("source configuration cannot be nil")
	}

	switch cfg.GetType() {
	case config.SourceTypeURL:
		u, err := url.Parse(cfg.URL.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("source %s: invalid endpoint: %w", cfg.Name, err)
		}
		if u.Scheme == "file" {
			if err := config.CheckFileURL(u); err != nil {
				return nil, fmt.Errorf("source %s: endpoint %w", cfg.Name, err)
			}
			return NewFileSourceHandler(cfg.Name, u.Path), nil
		}
		return NewURLSourceHandler(cfg.Name, cfg.URL.Endpoint, f.httpClient), nil
	case config.SourceTypeGit:
		return NewGitSourceHandler(cfg.Name, *cfg.Git, f.gitClient), nil
	case config.SourceTypeFile:
		return NewFileSourceHandler(cfg.Name, cfg.File.Path), nil
	default:
		return nil, fmt.Errorf("source %s: unsupported source type", cfg.Name)
	}
}

// CreateHandlers creates handlers for every configured source in order
func (f *defaultSourceHandlerFactory) CreateHandlers(cfgs []config.SourceConfig) ([]SourceHandler, error) {
	handlers := make([]SourceHandler, 0, len(cfgs))
	for i := range cfgs {
		h, err := f.CreateHandler(&cfgs[i])
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}
