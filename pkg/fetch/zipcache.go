package fetch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// readFromZipAncestor looks for destination inside a ZIP archive sitting at
// one of its ancestor paths in the cache, so a whole cached directory can be
// shipped as a single archive. Both "<dir>" being a ZIP file and a sibling
// "<dir>.zip" are accepted.
func readFromZipAncestor(cacheDir, destination string) ([]byte, bool, error) {
	rel := path.Clean(filepath.ToSlash(destination))
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], "/")
		member := strings.Join(parts[i:], "/")
		for _, candidate := range []string{prefix, prefix + ".zip"} {
			archive := filepath.Join(cacheDir, filepath.FromSlash(candidate))
			info, err := os.Stat(archive)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			body, ok, err := readZipMember(archive, member)
			if err != nil {
				return nil, false, err
			}
			if ok {
				return body, true, nil
			}
		}
	}
	return nil, false, nil
}

func readZipMember(archive, member string) ([]byte, bool, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		// Not a ZIP file; plain cached files may share a name prefix.
		return nil, false, nil
	}
	defer func() { _ = zr.Close() }()

	f, err := zr.Open(member)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("open %s in %s: %w", member, archive, err)
	}
	defer func() { _ = f.Close() }()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, false, fmt.Errorf("read %s in %s: %w", member, archive, err)
	}
	return body, true, nil
}
