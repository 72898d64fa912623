// Package packaging validates a Lambda inference code folder and bundles it
// into the zip archive the function platform expects.
package packaging

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// HandlerFile must exist at the root of the inference code folder.
	HandlerFile = "lambda_function.py"
	// HandlerFunc is the entry point defined in HandlerFile.
	HandlerFunc = "lambda_handler"
	// Handler is the Lambda handler setting for packaged code.
	Handler = "lambda_function." + HandlerFunc

	archiveMode = 0o644
)

var (
	// ErrNotDirectory is returned when the inference code location is not a folder.
	ErrNotDirectory = errors.New("inference code location must be a folder")
	// ErrMissingHandler is returned when the handler file or function is absent or malformed.
	ErrMissingHandler = errors.New("lambda handler not found")
)

var handlerDef = regexp.MustCompile(`(?m)^def\s+` + HandlerFunc + `\s*\(([^)]*)\)\s*(->\s*[^:]+)?:`)

// Validate checks that dir holds a handler file defining a two-argument handler function.
func Validate(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("inference code location %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q", ErrNotDirectory, dir)
	}

	handlerPath := filepath.Join(dir, HandlerFile)
	info, err = os.Stat(handlerPath)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is missing or not a file", ErrMissingHandler, handlerPath)
	}

	src, err := os.ReadFile(handlerPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", handlerPath, err)
	}
	m := handlerDef.FindSubmatch(src)
	if m == nil {
		return fmt.Errorf("%w: no function %q in %s", ErrMissingHandler, HandlerFunc, handlerPath)
	}
	if n := countParams(string(m[1])); n != 2 {
		return fmt.Errorf("%w: %q in %s takes %d arguments, expected 2", ErrMissingHandler, HandlerFunc, handlerPath, n)
	}
	return nil
}

func countParams(params string) int {
	n := 0
	for _, p := range strings.Split(params, ",") {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// skip reports whether a folder entry is left out of the archive.
func skip(name string, isDir bool) bool {
	return strings.HasPrefix(name, ".") || (isDir && name == "__pycache__")
}

// Files returns the archive names of everything Zip would include, in order.
func Files(dir string) ([]string, error) {
	var names []string
	err := walk(dir, func(_, name string) error {
		names = append(names, name)
		return nil
	})
	return names, err
}

// Zip writes the contents of dir to w as a zip archive with paths relative to dir.
func Zip(dir string, w io.Writer) error {
	zw := zip.NewWriter(w)
	err := walk(dir, func(path, name string) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate

		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return fmt.Errorf("zip %s: %w", dir, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

// ZipFile validates dir and writes the archive atomically to target.
func ZipFile(dir, target string) error {
	if err := Validate(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Zip(dir, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(archiveMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// walk visits regular files under dir in lexical order, skipping hidden entries and caches.
func walk(dir string, fn func(path, name string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if skip(d.Name(), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel))
	})
}
