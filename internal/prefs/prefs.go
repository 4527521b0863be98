// Package prefs is a small namespaced key-value store persisted as a single
// YAML file. Writes are buffered per namespace and committed atomically on
// End: the file is replaced by rename, and a blake2b checksum over the
// contents lets a torn or hand-edited file be detected and treated as empty.
package prefs

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// ErrCorrupt reports a store file whose checksum does not match its contents.
var ErrCorrupt = errors.New("prefs: checksum mismatch")

const fileVersion = 1

// Namespace is an open view of one namespace. Reads see the state at Begin
// plus this view's own writes; nothing is persisted until End.
type Namespace interface {
	GetString(key string) (string, bool)
	GetBytes(key string) ([]byte, bool)
	PutString(key, value string)
	PutBytes(key string, value []byte)
	// Clear removes every key in the namespace.
	Clear()
	// End commits pending writes. A namespace must not be used after End.
	End() error
}

// Store is a file-backed set of namespaces. Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a store persisted at path. The file is created on first
// commit; a missing file reads as empty.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

type section struct {
	Strings map[string]string `yaml:"strings,omitempty"`
	Blobs   map[string]string `yaml:"blobs,omitempty"` // hex-encoded
}

type document struct {
	Version    int                 `yaml:"version"`
	Namespaces map[string]*section `yaml:"namespaces"`
	Checksum   string              `yaml:"checksum"`
}

// Begin opens a namespace. A missing or corrupt file yields an empty
// namespace; only I/O failures are returned.
func (s *Store) Begin(name string) (Namespace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if errors.Is(err, ErrCorrupt) {
		slog.Warn("[PREFS] discarding corrupt store", "path", s.path, "error", err)
		doc, err = emptyDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	sec := cloneSection(doc.Namespaces[name])
	return &namespace{store: s, name: name, data: sec}, nil
}

// read loads and verifies the file (caller must hold mu).
func (s *Store) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: read %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Namespaces == nil {
		doc.Namespaces = make(map[string]*section)
	}
	sum, err := checksum(doc.Namespaces)
	if err != nil {
		return nil, err
	}
	if sum != doc.Checksum {
		return nil, ErrCorrupt
	}
	return &doc, nil
}

// commit replaces one namespace and rewrites the file (caller must hold mu).
func (s *Store) commit(name string, sec *section) error {
	doc, err := s.read()
	if errors.Is(err, ErrCorrupt) {
		doc, err = emptyDocument(), nil
	}
	if err != nil {
		return err
	}

	if sec == nil || (len(sec.Strings) == 0 && len(sec.Blobs) == 0) {
		delete(doc.Namespaces, name)
	} else {
		doc.Namespaces[name] = sec
	}

	doc.Version = fileVersion
	doc.Checksum, err = checksum(doc.Namespaces)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	return writeAtomic(s.path, out)
}

func emptyDocument() *document {
	return &document{Version: fileVersion, Namespaces: make(map[string]*section)}
}

func checksum(ns map[string]*section) (string, error) {
	body, err := yaml.Marshal(ns)
	if err != nil {
		return "", fmt.Errorf("prefs: encode for checksum: %w", err)
	}
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// writeAtomic writes data to a temp file in the same directory, syncs it and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prefs: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.tmp")
	if err != nil {
		return fmt.Errorf("prefs: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("prefs: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("prefs: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("prefs: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("prefs: replace %s: %w", path, err)
	}
	return nil
}

func cloneSection(sec *section) *section {
	out := &section{
		Strings: make(map[string]string),
		Blobs:   make(map[string]string),
	}
	if sec == nil {
		return out
	}
	for k, v := range sec.Strings {
		out.Strings[k] = v
	}
	for k, v := range sec.Blobs {
		out.Blobs[k] = v
	}
	return out
}

type namespace struct {
	store *Store
	name  string
	data  *section
	dirty bool
	ended bool
}

func (n *namespace) GetString(key string) (string, bool) {
	v, ok := n.data.Strings[key]
	return v, ok
}

func (n *namespace) GetBytes(key string) ([]byte, bool) {
	v, ok := n.data.Blobs[key]
	if !ok {
		return nil, false
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (n *namespace) PutString(key, value string) {
	n.data.Strings[key] = value
	n.dirty = true
}

func (n *namespace) PutBytes(key string, value []byte) {
	n.data.Blobs[key] = hex.EncodeToString(value)
	n.dirty = true
}

func (n *namespace) Clear() {
	n.data = cloneSection(nil)
	n.dirty = true
}

func (n *namespace) End() error {
	if n.ended {
		return errors.New("prefs: namespace already ended")
	}
	n.ended = true
	if !n.dirty {
		return nil
	}
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	return n.store.commit(n.name, n.data)
}
