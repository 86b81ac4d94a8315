package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"strings"

	"github.com/philfreshman/diffpack/pkg/errors"
)

// Extract decompresses a gzipped tarball into a FileMap.
//
// Paths are normalized to slash-separated relative form. If every entry
// lives under a single top-level directory (the common layout for npm
// "package/", crates "name-version/", and codeload "repo-ref/"
// tarballs), that root is stripped so the map starts at the package
// contents.
func Extract(data []byte) (FileMap, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "gzip decompression failed")
	}
	defer gz.Close()

	files := make(FileMap)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "tar parsing failed")
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			path := normalizePath(hdr.Name, true)
			if path == "" {
				continue
			}
			files[path] = Entry{Type: EntryDirectory}
		case tar.TypeReg:
			path := normalizePath(hdr.Name, false)
			if path == "" {
				continue
			}
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeParse, err, "tar read failed for %s", hdr.Name)
			}
			files[path] = Entry{Type: EntryFile, Content: string(content)}
		}
	}

	ensureDirectories(files)
	return stripCommonRoot(files), nil
}

func normalizePath(path string, isDir bool) string {
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" || path == "." {
		return ""
	}
	if isDir {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// ensureDirectories fills in directory entries for every ancestor of
// every path. Many tarballs omit explicit directory headers.
func ensureDirectories(files FileMap) {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	for _, path := range paths {
		var current string
		for _, part := range strings.Split(path, "/") {
			if part == "" {
				break
			}
			if current != "" {
				current += "/"
			}
			current += part
			if _, ok := files[current]; !ok {
				files[current] = Entry{Type: EntryDirectory}
			}
		}
	}
}

// stripCommonRoot removes the single shared top-level directory, if any.
func stripCommonRoot(files FileMap) FileMap {
	if len(files) == 0 {
		return files
	}

	roots := make(map[string]struct{})
	for path := range files {
		first, _, _ := strings.Cut(path, "/")
		if first != "" {
			roots[first] = struct{}{}
		}
	}
	if len(roots) != 1 {
		return files
	}

	var root string
	for r := range roots {
		root = r
	}
	if entry, ok := files[root]; !ok || entry.Type != EntryDirectory {
		return files
	}

	prefix := root + "/"
	stripped := make(FileMap, len(files))
	for path, entry := range files {
		if path == root {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if rest != "" && rest != path {
			stripped[rest] = entry
		}
	}
	if len(stripped) == 0 {
		return files
	}
	return stripped
}
