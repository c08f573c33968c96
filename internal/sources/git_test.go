package sources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/usb-ids-registry/internal/config"
	"github.com/stacklok/usb-ids-registry/internal/git"
	gitmocks "github.com/stacklok/usb-ids-registry/internal/git/mocks"
)

const testGitRepoURL = "https://github.com/example/usb-ids.git"

func TestGitSourceHandler_Fetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		source    config.GitConfig
		setupMock func(m *gitmocks.MockClient)
		wantData  string
		wantErr   string
	}{
		{
			name:   "default path",
			source: config.GitConfig{Repository: testGitRepoURL, Branch: "main"},
			setupMock: func(m *gitmocks.MockClient) {
				repoInfo := &git.RepositoryInfo{Branch: "main"}
				m.EXPECT().Clone(gomock.Any(), &git.CloneConfig{URL: testGitRepoURL, Branch: "main"}).Return(repoInfo, nil)
				m.EXPECT().GetFileContent(repoInfo, "usb.ids").Return([]byte(testRegistryText), nil)
				m.EXPECT().Cleanup(gomock.Any(), repoInfo).Return(nil)
			},
			wantData: testRegistryText,
		},
		{
			name:   "custom path and tag",
			source: config.GitConfig{Repository: testGitRepoURL, Tag: "v258", Path: "hwdb.d/usb.ids"},
			setupMock: func(m *gitmocks.MockClient) {
				repoInfo := &git.RepositoryInfo{}
				m.EXPECT().Clone(gomock.Any(), &git.CloneConfig{URL: testGitRepoURL, Tag: "v258"}).Return(repoInfo, nil)
				m.EXPECT().GetFileContent(repoInfo, "hwdb.d/usb.ids").Return([]byte(testRegistryText), nil)
				m.EXPECT().Cleanup(gomock.Any(), repoInfo).Return(errors.New("cleanup failed"))
			},
			wantData: testRegistryText,
		},
		{
			name:   "clone failure",
			source: config.GitConfig{Repository: testGitRepoURL},
			setupMock: func(m *gitmocks.MockClient) {
				m.EXPECT().Clone(gomock.Any(), gomock.Any()).Return(nil, errors.New("authentication required"))
			},
			wantErr: "failed to clone repository",
		},
		{
			name:   "missing file",
			source: config.GitConfig{Repository: testGitRepoURL},
			setupMock: func(m *gitmocks.MockClient) {
				repoInfo := &git.RepositoryInfo{}
				m.EXPECT().Clone(gomock.Any(), gomock.Any()).Return(repoInfo, nil)
				m.EXPECT().GetFileContent(repoInfo, "usb.ids").Return(nil, errors.New("file not found"))
				m.EXPECT().Cleanup(gomock.Any(), repoInfo).Return(nil)
			},
			wantErr: "failed to get file usb.ids from repository",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			gitClient := gitmocks.NewMockClient(ctrl)
			tt.setupMock(gitClient)

			handler := NewGitSourceHandler("mirror-repo", tt.source, gitClient)

			data, err := handler.Fetch(t.Context())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, string(data))
		})
	}
}

func TestGitSourceHandler_LocalRepository(t *testing.T) {
	t.Parallel()

	repoDir := git.CreateTestRepo(t, map[string]string{"hwdb.d/usb.ids": testRegistryText})

	handler := NewGitSourceHandler("", config.GitConfig{Repository: repoDir, Path: "hwdb.d/usb.ids"}, git.NewDefaultGitClient())

	data, err := handler.Fetch(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testRegistryText, string(data))
	assert.Equal(t, repoDir, handler.Name())
}
