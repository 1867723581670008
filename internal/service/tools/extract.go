package tools

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oshokin/gettools/internal/constants"
)

// ExtractTarMember extracts a single regular file from an uncompressed tar archive into destDir,
// keeping its archive path, and returns the path of the extracted file.
func ExtractTarMember(tarPath, member, destDir string) (string, error) {
	archiveFile, err := os.Open(filepath.Clean(tarPath))
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}

	defer archiveFile.Close() //nolint:errcheck // Read-only file.

	wanted := cleanMemberName(member)
	tarReader := tar.NewReader(archiveFile)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: %s in %s", ErrMemberNotFound, member, filepath.Base(tarPath))
		}

		// Insecure names are reported with a valid header; the path check below rejects them.
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return "", fmt.Errorf("failed to read tar header: %w", err)
		}

		if cleanMemberName(header.Name) != wanted {
			continue
		}

		target, err := memberTargetPath(destDir, header.Name)
		if err != nil {
			return "", err
		}

		//nolint:staticcheck // TypeRegA is still produced by old archivers.
		if header.Typeflag != tar.TypeReg && header.Typeflag != tar.TypeRegA {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedMember, header.Name)
		}

		err = writeMember(target, tarReader)
		if err != nil {
			return "", err
		}

		return target, nil
	}
}

// ExtractZipMembers extracts the given regular files from a zip archive into destDir,
// keeping their archive paths, and returns the extracted paths in the order of members.
// Every member is checked before anything is written.
func ExtractZipMembers(zipPath string, members []string, destDir string) ([]string, error) {
	zipReader, err := zip.OpenReader(filepath.Clean(zipPath))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	defer zipReader.Close() //nolint:errcheck // Read-only file.

	filesByName := make(map[string]*zip.File, len(zipReader.File))
	for _, file := range zipReader.File {
		filesByName[cleanMemberName(file.Name)] = file
	}

	var (
		files   = make([]*zip.File, 0, len(members))
		targets = make([]string, 0, len(members))
	)

	for _, member := range members {
		file, ok := filesByName[cleanMemberName(member)]
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrMemberNotFound, member, filepath.Base(zipPath))
		}

		target, err := memberTargetPath(destDir, file.Name)
		if err != nil {
			return nil, err
		}

		if !file.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMember, file.Name)
		}

		files = append(files, file)
		targets = append(targets, target)
	}

	for i, file := range files {
		err = extractZipFile(file, targets[i])
		if err != nil {
			return nil, err
		}
	}

	return targets, nil
}

// MoveFile moves src to dst, copying and removing src when a rename is impossible,
// for example across devices.
func MoveFile(src, dst string) error {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	err := copyFile(src, dst)
	if err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, errors.Join(renameErr, err))
	}

	err = os.Remove(src)
	if err != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", src, err)
	}

	return nil
}

func extractZipFile(file *zip.File, target string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open zip member %s: %w", file.Name, err)
	}

	defer reader.Close() //nolint:errcheck // Read-only stream.

	return writeMember(target, reader)
}

// writeMember writes an archive member to target with the default file permissions.
func writeMember(target string, src io.Reader) error {
	err := os.MkdirAll(filepath.Dir(target), constants.DefaultFolderPermissions)
	if err != nil {
		return fmt.Errorf("failed to create folder for %s: %w", target, err)
	}

	outFile, err := os.OpenFile(filepath.Clean(target), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}

	_, err = io.Copy(outFile, src)
	if err != nil {
		_ = outFile.Close()

		return fmt.Errorf("failed to write file %s: %w", target, err)
	}

	return outFile.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer in.Close() //nolint:errcheck // Read-only file.

	out, err := os.OpenFile(filepath.Clean(dst), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

// cleanMemberName normalises an archive member name for lookups.
func cleanMemberName(name string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, `\`, "/")), "./")
}

// memberTargetPath resolves a member name under destDir.
// Absolute names, names with a drive or volume, and names escaping destDir are rejected.
func memberTargetPath(destDir, name string) (string, error) {
	cleaned := cleanMemberName(name)

	if cleaned == "." ||
		path.IsAbs(cleaned) ||
		filepath.VolumeName(filepath.FromSlash(cleaned)) != "" ||
		cleaned == ".." ||
		strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrIllegalMemberPath, name)
	}

	base := filepath.Clean(destDir)
	target := filepath.Join(base, filepath.FromSlash(cleaned))

	if !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrIllegalMemberPath, name)
	}

	return target, nil
}
