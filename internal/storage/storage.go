package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PathEnvVar names the environment variable that relocates the config file.
	PathEnvVar = "MLFLOW_AWS_CONFIG"

	defaultFileName = ".mlflow-aws"
	generalSection  = "general"

	fileMode = 0o600
	dirMode  = 0o775
)

// ErrNoHome is returned when neither the env snapshot nor the OS knows the home directory.
var ErrNoHome = errors.New("cannot determine home directory")

// Store provides access to the persisted key/value overrides.
type Store interface {
	Load() (*Document, error)
	Save(entries []Entry) error
	Path() string
}

// Entry is a single key/value pair read from or written to the file.
type Entry struct {
	Key   string
	Value string
	Line  int
}

// Warning describes a line that was skipped while parsing.
type Warning struct {
	Line   int
	Text   string
	Reason string
}

// Document is the parsed content of the config file.
type Document struct {
	Entries  []Entry
	Warnings []Warning
}

// FileStore keeps overrides in an INI-like file with a single [general] section.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file does not need to exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ResolvePath returns the config file location: MLFLOW_AWS_CONFIG when set,
// otherwise ~/.mlflow-aws. HOME from env takes precedence over the OS lookup.
func ResolvePath(env map[string]string) (string, error) {
	if p := strings.TrimSpace(env[PathEnvVar]); p != "" {
		return p, nil
	}

	home := env["HOME"]
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil || home == "" {
			return "", ErrNoHome
		}
	}
	return filepath.Join(home, defaultFileName), nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the file. A missing file yields an empty document.
func (s *FileStore) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	return doc, nil
}

// Save atomically replaces the file with the given entries, in order.
func (s *FileStore) Save(entries []Entry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(Encode(entries)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	committed = true
	return nil
}

// Parse reads key=value lines. Lines it cannot make sense of are reported as
// warnings. Lines have no length limit; a read error fails the whole parse.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	section := generalSection
	sectionless := true

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		if raw == "" && err != nil {
			break
		}
		lineNo++
		raw = strings.TrimRight(raw, "\r\n")
		line := strings.TrimSpace(raw)

		switch {
		case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, "["):
			if !strings.HasSuffix(line, "]") {
				doc.Warnings = append(doc.Warnings, Warning{Line: lineNo, Text: raw, Reason: "unterminated section header"})
				continue
			}
			section = strings.TrimSpace(line[1 : len(line)-1])
			sectionless = false
			continue
		}

		if !sectionless && section != generalSection {
			doc.Warnings = append(doc.Warnings, Warning{Line: lineNo, Text: raw, Reason: fmt.Sprintf("entry in unsupported section %q", section)})
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			// configparser also accepts ':' as a delimiter
			key, value, ok = strings.Cut(line, ":")
		}
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			doc.Warnings = append(doc.Warnings, Warning{Line: lineNo, Text: raw, Reason: "expected KEY = value"})
			continue
		}

		doc.Entries = append(doc.Entries, Entry{
			Key:   strings.ToUpper(key),
			Value: strings.TrimSpace(value),
			Line:  lineNo,
		})
	}

	return doc, nil
}

// Encode renders entries in the on-disk format.
func Encode(entries []Entry) []byte {
	var buf bytes.Buffer
	buf.WriteString("[" + generalSection + "]\n")
	for _, e := range entries {
		if e.Value == "" {
			buf.WriteString(e.Key + " =\n")
			continue
		}
		buf.WriteString(e.Key + " = " + e.Value + "\n")
	}
	return buf.Bytes()
}
