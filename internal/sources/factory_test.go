package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/usb-ids-registry/internal/config"
	gitmocks "github.com/stacklok/usb-ids-registry/internal/git/mocks"
	httpmocks "github.com/stacklok/usb-ids-registry/internal/httpclient/mocks"
)

func TestSourceHandlerFactory_CreateHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      *config.SourceConfig
		wantType any
		wantErr  string
	}{
		{
			name:     "url source",
			cfg:      &config.SourceConfig{Name: "systemd", URL: &config.URLConfig{Endpoint: config.SystemdMirrorURL}},
			wantType: &urlSourceHandler{},
		},
		{
			name:     "file url maps to file handler",
			cfg:      &config.SourceConfig{Name: "local", URL: &config.URLConfig{Endpoint: "file:///data/usb.ids"}},
			wantType: &fileSourceHandler{},
		},
		{
			name:     "file url with localhost host",
			cfg:      &config.SourceConfig{Name: "local", URL: &config.URLConfig{Endpoint: "file://localhost/data/usb.ids"}},
			wantType: &fileSourceHandler{},
		},
		{
			name:    "relative file url",
			cfg:     &config.SourceConfig{Name: "local", URL: &config.URLConfig{Endpoint: "file://relative/usb.ids"}},
			wantErr: "must be an absolute file URL",
		},
		{
			name:     "git source",
			cfg:      &config.SourceConfig{Name: "repo", Git: &config.GitConfig{Repository: testGitRepoURL}},
			wantType: &gitSourceHandler{},
		},
		{
			name:     "file source",
			cfg:      &config.SourceConfig{Name: "local", File: &config.FileConfig{Path: "usb.ids"}},
			wantType: &fileSourceHandler{},
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: "source configuration cannot be nil",
		},
		{
			name:    "no type",
			cfg:     &config.SourceConfig{Name: "empty"},
			wantErr: "unsupported source type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			factory := NewSourceHandlerFactory(httpmocks.NewMockClient(ctrl), gitmocks.NewMockClient(ctrl))

			handler, err := factory.CreateHandler(tt.cfg)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, handler)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, handler)
			assert.Equal(t, tt.cfg.Name, handler.Name())
		})
	}
}

func TestSourceHandlerFactory_FileURLPath(t *testing.T) {
	t.Parallel()

	factory := NewSourceHandlerFactory(nil, nil)

	handler, err := factory.CreateHandler(&config.SourceConfig{
		Name: "local",
		URL:  &config.URLConfig{Endpoint: "file:///data/usb.ids"},
	})
	require.NoError(t, err)

	fileHandler, ok := handler.(*fileSourceHandler)
	require.True(t, ok)
	assert.Equal(t, "/data/usb.ids", fileHandler.path)
}

func TestSourceHandlerFactory_CreateHandlers(t *testing.T) {
	t.Parallel()

	factory := NewSourceHandlerFactory(nil, nil)

	handlers, err := factory.CreateHandlers(config.Default().Sources)
	require.NoError(t, err)
	require.Len(t, handlers, 2)
	assert.Equal(t, "systemd", handlers[0].Name())
	assert.Equal(t, "linux-usb", handlers[1].Name())

	_, err = factory.CreateHandlers([]config.SourceConfig{{Name: "bad"}})
	require.Error(t, err)
}
