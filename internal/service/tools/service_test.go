package tools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/gettools/internal/client/cds"
	mock_cds "github.com/oshokin/gettools/internal/client/cds/mocks"
	"github.com/oshokin/gettools/internal/config"
)

const testArchiveURL = "https://cds.example.com/cds/fusion/13.5.2/23775688/universal/core/com.vmware.fusion.zip.tar"

// testServiceSetup encapsulates common test dependencies.
type testServiceSetup struct {
	mockClient *mock_cds.MockClient
	service    *ServiceImpl
	config     *config.Config
}

// newTestServiceSetup creates a service backed by a mocked CDS client.
func newTestServiceSetup(t *testing.T, overrides ...func(*config.Config)) *testServiceSetup {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockClient := mock_cds.NewMockClient(ctrl)
	cfg := newTestConfig(t, overrides...)

	service, ok := NewService(cfg, mockClient).(*ServiceImpl)
	require.True(t, ok, "Service should be of type *ServiceImpl")

	return &testServiceSetup{
		mockClient: mockClient,
		service:    service,
		config:     cfg,
	}
}

// archiveResult wraps body into a fetch result with a matching Content-Length.
func archiveResult(body []byte) *cds.FetchArchiveResult {
	return &cds.FetchArchiveResult{
		Body:       io.NopCloser(bytes.NewReader(body)),
		TotalBytes: int64(len(body)),
	}
}

// expectArchive sets up the calls of a run for the configured release.
func (s *testServiceSetup) expectArchive(result *cds.FetchArchiveResult, err error) {
	s.mockClient.EXPECT().
		ArchiveURL(s.config.ProductVersion, s.config.Build).
		Return(testArchiveURL, nil)
	s.mockClient.EXPECT().
		FetchArchive(gomock.Any(), testArchiveURL).
		Return(result, err)
}

// assertNoArtifacts checks that only the final images may remain in the tools folder.
func assertNoArtifacts(t *testing.T, toolsPath string) {
	t.Helper()

	assert.NoFileExists(t, filepath.Join(toolsPath, cds.CoreArchiveName))
	assert.NoFileExists(t, filepath.Join(toolsPath, cds.CoreArchiveName+".part"))
	assert.NoFileExists(t, filepath.Join(toolsPath, InnerZipName))
	assert.NoDirExists(t, filepath.Join(toolsPath, PayloadFolderName))
}

// TestFetch_Success tests the whole pipeline against a well-formed archive.
func TestFetch_Success(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)
	archive := toolsArchive(t, toolsZip(t))
	setup.expectArchive(archiveResult(archive), nil)

	toolsPath := setup.config.OutputPath
	require.NoError(t, os.MkdirAll(toolsPath, 0o755))
	writeTestFile(t, toolsPath, "stale.iso", []byte("stale"))

	err := setup.service.Fetch(t.Context())
	require.NoError(t, err)

	darwin, err := os.ReadFile(filepath.Join(toolsPath, DarwinISOName))
	require.NoError(t, err)
	assert.Equal(t, "darwin iso", string(darwin))

	darwinPre15, err := os.ReadFile(filepath.Join(toolsPath, DarwinPre15ISOName))
	require.NoError(t, err)
	assert.Equal(t, "darwin pre15 iso", string(darwinPre15))

	entries, err := os.ReadDir(toolsPath)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	assert.ElementsMatch(t, []string{DarwinISOName, DarwinPre15ISOName}, names)
	assertNoArtifacts(t, toolsPath)

	stats := setup.service.stats
	assert.Equal(t, "13.5.2", stats.Version)
	assert.Equal(t, "23775688", stats.Build)
	assert.Equal(t, testArchiveURL, stats.ArchiveURL)
	assert.Equal(t, int64(len(archive)), stats.BytesDownloaded)
	assert.Equal(t, []string{
		filepath.Join(toolsPath, DarwinISOName),
		filepath.Join(toolsPath, DarwinPre15ISOName),
	}, stats.ToolPaths)
	assert.False(t, stats.EndTime.Before(stats.StartTime))
}

// TestFetch_Failures tests that every pipeline failure is reported as tools not found.
func TestFetch_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		result      func(t *testing.T) *cds.FetchArchiveResult
		fetchErr    error
		expectedErr error
	}{
		{
			name:        "http status",
			fetchErr:    cds.ErrUnexpectedHTTPStatus,
			expectedErr: cds.ErrUnexpectedHTTPStatus,
		},
		{
			name: "short body",
			result: func(t *testing.T) *cds.FetchArchiveResult {
				t.Helper()

				result := archiveResult(toolsArchive(t, toolsZip(t)))
				result.TotalBytes += 100

				return result
			},
			expectedErr: ErrIncompleteDownload,
		},
		{
			name: "tar without zip",
			result: func(t *testing.T) *cds.FetchArchiveResult {
				t.Helper()

				return archiveResult(buildTar(t, testMember{name: "descriptor.xml", body: []byte("<metadata/>")}))
			},
			expectedErr: ErrMemberNotFound,
		},
		{
			name: "zip without pre15 image",
			result: func(t *testing.T) *cds.FetchArchiveResult {
				t.Helper()

				zipBody := buildZip(t, testMember{name: ISOMemberName(testArch, DarwinISOName), body: []byte("iso")})

				return archiveResult(toolsArchive(t, zipBody))
			},
			expectedErr: ErrMemberNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			setup := newTestServiceSetup(t)

			var result *cds.FetchArchiveResult
			if tt.result != nil {
				result = tt.result(t)
			}

			setup.expectArchive(result, tt.fetchErr)

			err := setup.service.Fetch(t.Context())
			require.ErrorIs(t, err, ErrToolsNotFound)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.DirExists(t, setup.config.OutputPath)
			assertNoArtifacts(t, setup.config.OutputPath)
			assert.NoFileExists(t, filepath.Join(setup.config.OutputPath, DarwinISOName))
		})
	}
}

// TestFetch_Canceled tests that cancellation is not reported as tools not found.
func TestFetch_Canceled(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	setup.expectArchive(nil, context.Canceled)

	err := setup.service.Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrToolsNotFound)
}

// TestFetch_SpeedLimit tests the throttled copy with a limit larger than the archive.
func TestFetch_SpeedLimit(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t, func(cfg *config.Config) {
		cfg.DownloadSpeedLimit = "10 MB"
	})
	setup.expectArchive(archiveResult(toolsArchive(t, toolsZip(t))), nil)

	require.NoError(t, setup.service.Fetch(t.Context()))
	assert.FileExists(t, filepath.Join(setup.config.OutputPath, DarwinISOName))
}

// TestResolveRelease tests the resolution of the latest version and an empty build.
//
//nolint:funlen // Table-driven test with many cases.
func TestResolveRelease(t *testing.T) {
	t.Parallel()

	listErr := errors.New("listing unavailable")

	tests := []struct {
		name            string
		version         string
		build           string
		setupMocks      func(m *mock_cds.MockClient)
		expectedVersion string
		expectedBuild   string
		expectedErr     error
	}{
		{
			name:            "pinned release needs no listing",
			version:         "13.5.2",
			build:           "23775688",
			setupMocks:      func(*mock_cds.MockClient) {},
			expectedVersion: "13.5.2",
			expectedBuild:   "23775688",
		},
		{
			name:    "empty build takes the newest build",
			version: "13.5.2",
			setupMocks: func(m *mock_cds.MockClient) {
				m.EXPECT().ListBuilds(gomock.Any(), "13.5.2").Return([]string{"23775688", "23775689"}, nil)
			},
			expectedVersion: "13.5.2",
			expectedBuild:   "23775689",
		},
		{
			name:    "latest ignores the configured build",
			version: config.LatestVersion,
			build:   "23775688",
			setupMocks: func(m *mock_cds.MockClient) {
				m.EXPECT().ListVersions(gomock.Any()).Return([]string{"12.2.5", "13.6.0"}, nil)
				m.EXPECT().ListBuilds(gomock.Any(), "13.6.0").Return([]string{"24238079"}, nil)
			},
			expectedVersion: "13.6.0",
			expectedBuild:   "24238079",
		},
		{
			name:    "version listing fails",
			version: config.LatestVersion,
			setupMocks: func(m *mock_cds.MockClient) {
				m.EXPECT().ListVersions(gomock.Any()).Return(nil, listErr)
			},
			expectedErr: listErr,
		},
		{
			name:    "no versions",
			version: config.LatestVersion,
			setupMocks: func(m *mock_cds.MockClient) {
				m.EXPECT().ListVersions(gomock.Any()).Return(nil, nil)
			},
			expectedErr: ErrNoReleases,
		},
		{
			name:    "no builds",
			version: "13.5.2",
			setupMocks: func(m *mock_cds.MockClient) {
				m.EXPECT().ListBuilds(gomock.Any(), "13.5.2").Return([]string{}, nil)
			},
			expectedErr: ErrNoReleases,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			setup := newTestServiceSetup(t, func(cfg *config.Config) {
				cfg.ProductVersion = tt.version
				cfg.Build = tt.build
			})
			tt.setupMocks(setup.mockClient)

			version, build, err := setup.service.resolveRelease(t.Context())
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedVersion, version)
			assert.Equal(t, tt.expectedBuild, build)
		})
	}
}

// TestFetch_ResolveFailure tests that a failed resolution leaves the tools folder untouched.
func TestFetch_ResolveFailure(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t, func(cfg *config.Config) {
		cfg.ProductVersion = config.LatestVersion
	})
	setup.mockClient.EXPECT().ListVersions(gomock.Any()).Return(nil, cds.ErrEmptyListing)

	toolsPath := setup.config.OutputPath
	require.NoError(t, os.MkdirAll(toolsPath, 0o755))
	stale := writeTestFile(t, toolsPath, DarwinISOName, []byte("previous run"))

	err := setup.service.Fetch(t.Context())
	require.ErrorIs(t, err, ErrToolsNotFound)
	require.ErrorIs(t, err, cds.ErrEmptyListing)

	assert.FileExists(t, stale)
}
