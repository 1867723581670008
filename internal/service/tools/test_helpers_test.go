package tools

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/constants"
)

const testArch = "x86_x64"

// testMember is a named archive entry used to build fixtures.
type testMember struct {
	name     string
	body     []byte
	typeflag byte
}

// buildZip returns a zip archive with the given members.
func buildZip(t *testing.T, members ...testMember) []byte {
	t.Helper()

	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)

	for _, member := range members {
		w, err := writer.Create(member.name)
		require.NoError(t, err)

		_, err = w.Write(member.body)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return buf.Bytes()
}

// buildTar returns an uncompressed tar archive with the given members.
func buildTar(t *testing.T, members ...testMember) []byte {
	t.Helper()

	var buf bytes.Buffer

	writer := tar.NewWriter(&buf)

	for _, member := range members {
		typeflag := member.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}

		header := &tar.Header{
			Name:     member.name,
			Mode:     0o600,
			Size:     int64(len(member.body)),
			Typeflag: typeflag,
		}

		if typeflag != tar.TypeReg {
			header.Size = 0
			header.Linkname = "target"
		}

		require.NoError(t, writer.WriteHeader(header))

		if typeflag == tar.TypeReg {
			_, err := writer.Write(member.body)
			require.NoError(t, err)
		}
	}

	require.NoError(t, writer.Close())

	return buf.Bytes()
}

// toolsZip returns the inner zip with both ISO images for testArch.
func toolsZip(t *testing.T) []byte {
	t.Helper()

	return buildZip(t,
		testMember{name: ISOMemberName(testArch, DarwinISOName), body: []byte("darwin iso")},
		testMember{name: ISOMemberName(testArch, DarwinPre15ISOName), body: []byte("darwin pre15 iso")},
		testMember{name: "payload/VMware Fusion.app/Contents/Info.plist", body: []byte("<plist/>")},
	)
}

// toolsArchive returns the core tar archive wrapping zipBody.
func toolsArchive(t *testing.T, zipBody []byte) []byte {
	t.Helper()

	return buildTar(t,
		testMember{name: "descriptor.xml", body: []byte("<metadata/>")},
		testMember{name: InnerZipName, body: zipBody},
	)
}

// writeTestFile writes body into dir/name and returns the path.
func writeTestFile(t *testing.T, dir, name string, body []byte) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(filePath, body, constants.DefaultFilePermissions))

	return filePath
}

// newTestConfig returns a validated config with the tools folder under a temp dir.
func newTestConfig(t *testing.T, overrides ...func(*config.Config)) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.OutputPath = filepath.Join(t.TempDir(), "tools")
	cfg.ShowProgress = false

	for _, override := range overrides {
		override(cfg)
	}

	require.NoError(t, config.ValidateConfig(cfg))

	return cfg
}
