package config

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/mlflow-aws/internal/storage"
)

// Env is a snapshot of environment variables.
type Env map[string]string

// EnvFromOS captures the current process environment.
func EnvFromOS() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Source identifies where an effective value came from.
type Source int

const (
	SourceDefault Source = iota
	SourceFile
	SourceEnv
)

func (s Source) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceEnv:
		return "env"
	default:
		return "default"
	}
}

// Entry is one row of List.
type Entry struct {
	Key       Key
	Value     Value
	Source    Source
	IsDefault bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for corruption warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithKeys replaces the declared key set, primarily for tests.
func WithKeys(keys []Key) Option {
	return func(r *Resolver) {
		r.keys = keys
	}
}

// Resolver computes effective configuration from defaults, the persisted
// store and an environment snapshot. Precedence: env > file > default.
type Resolver struct {
	store  storage.Store
	env    Env
	logger *zap.Logger
	keys   []Key
	index  map[string]int

	mu        sync.Mutex
	loaded    bool
	loadErr   error
	stored    map[string]Value
	warnings  []StoreCorruptionWarning
	badEnvKey map[string]string
}

// NewResolver builds a resolver over store and env. The store is read lazily.
func NewResolver(store storage.Store, env Env, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		env:       maps.Clone(env),
		logger:    zap.NewNop(),
		keys:      declared,
		badEnvKey: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.index = make(map[string]int, len(r.keys))
	for i, k := range r.keys {
		r.index[k.Name] = i
	}
	return r
}

// Keys returns the declared keys in listing order.
func (r *Resolver) Keys() []Key {
	out := make([]Key, len(r.keys))
	copy(out, r.keys)
	return out
}

// Location returns the backing file path. The file need not exist.
func (r *Resolver) Location() string {
	return r.store.Path()
}

// Get returns the effective value of name.
func (r *Resolver) Get(name string) (Value, error) {
	k, err := r.lookup(name)
	if err != nil {
		return Unset, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	v, _ := r.resolve(k)
	return v, nil
}

// Set coerces raw to the key's type and persists it. A value equal to the
// default removes any existing override instead.
func (r *Resolver) Set(name, raw string) error {
	k, err := r.lookup(name)
	if err != nil {
		return err
	}
	v, err := Parse(k.Type, raw)
	if err != nil {
		return &TypeMismatchError{Key: k.Name, Type: k.Type, Value: raw, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	if v.Equal(k.Default) {
		return r.remove(k.Name)
	}

	prev, had := r.stored[k.Name]
	r.stored[k.Name] = v
	if err := r.persist(); err != nil {
		if had {
			r.stored[k.Name] = prev
		} else {
			delete(r.stored, k.Name)
		}
		return err
	}

	r.logger.Debug("config value updated", zap.String("key", k.Name), zap.String("path", r.store.Path()))
	return nil
}

// Unset removes the explicit override for name. It is a no-op when none exists.
func (r *Resolver) Unset(name string) error {
	k, err := r.lookup(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	return r.remove(k.Name)
}

// List returns every declared key with its effective value, in declaration order.
func (r *Resolver) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	out := make([]Entry, 0, len(r.keys))
	for _, k := range r.keys {
		v, src := r.resolve(k)
		out = append(out, Entry{
			Key:       k,
			Value:     v,
			Source:    src,
			IsDefault: src == SourceDefault,
		})
	}
	return out
}

// Warnings returns the problems found while reading the store and environment.
func (r *Resolver) Warnings() []StoreCorruptionWarning {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]StoreCorruptionWarning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// String returns the effective string value of a declared key, or "" if unset.
func (r *Resolver) String(name string) string {
	v, _ := r.Get(name)
	return v.Str()
}

// Int returns the effective integer value of a declared key, or 0 if unset.
func (r *Resolver) Int(name string) int {
	v, _ := r.Get(name)
	return v.Int()
}

// Bool returns the effective boolean value of a declared key, or false if unset.
func (r *Resolver) Bool(name string) bool {
	v, _ := r.Get(name)
	return v.Bool()
}

// Strings returns the effective list value of a declared key, or nil if unset.
func (r *Resolver) Strings(name string) []string {
	v, _ := r.Get(name)
	return v.List()
}

func (r *Resolver) lookup(name string) (Key, error) {
	i, ok := r.index[name]
	if !ok {
		return Key{}, &UnknownKeyError{Key: name}
	}
	return r.keys[i], nil
}

// resolve must be called with mu held and the store loaded.
func (r *Resolver) resolve(k Key) (Value, Source) {
	if raw := r.env[k.Name]; raw != "" {
		v, err := Parse(k.Type, raw)
		if err == nil {
			return v, SourceEnv
		}
		if r.badEnvKey[k.Name] != raw {
			r.badEnvKey[k.Name] = raw
			r.warn(StoreCorruptionWarning{Key: k.Name, Reason: fmt.Sprintf("ignoring environment override: %v", err)})
		}
	}
	if v, ok := r.stored[k.Name]; ok {
		return v, SourceFile
	}
	return k.Default, SourceDefault
}

func (r *Resolver) load() {
	if r.loaded {
		return
	}
	r.loaded = true
	r.stored = make(map[string]Value)
	path := r.store.Path()

	r.logger.Debug("loading config file", zap.String("path", path))
	doc, err := r.store.Load()
	if err != nil {
		r.loadErr = err
		r.warn(StoreCorruptionWarning{Path: path, Reason: fmt.Sprintf("cannot read config file: %v", err)})
		return
	}

	for _, w := range doc.Warnings {
		r.warn(StoreCorruptionWarning{Path: path, Line: w.Line, Reason: w.Reason})
	}

	for _, e := range doc.Entries {
		k, err := r.lookup(e.Key)
		if err != nil {
			r.warn(StoreCorruptionWarning{Path: path, Line: e.Line, Key: e.Key, Reason: fmt.Sprintf("dropping undeclared key %s", e.Key)})
			continue
		}
		v, err := Parse(k.Type, e.Value)
		if err != nil {
			r.warn(StoreCorruptionWarning{Path: path, Line: e.Line, Key: e.Key, Reason: fmt.Sprintf("ignoring %s: %v", e.Key, err)})
			continue
		}
		if v.Equal(k.Default) {
			delete(r.stored, k.Name)
			continue
		}
		r.stored[k.Name] = v
	}
}

func (r *Resolver) remove(name string) error {
	prev, had := r.stored[name]
	if !had {
		return nil
	}
	delete(r.stored, name)
	if err := r.persist(); err != nil {
		r.stored[name] = prev
		return err
	}
	r.logger.Debug("config value removed", zap.String("key", name), zap.String("path", r.store.Path()))
	return nil
}

func (r *Resolver) persist() error {
	path := r.store.Path()
	if r.loadErr != nil {
		return &StoreWriteError{Path: path, Err: fmt.Errorf("existing file is unreadable: %w", r.loadErr)}
	}

	entries := make([]storage.Entry, 0, len(r.stored))
	for _, k := range r.keys {
		if v, ok := r.stored[k.Name]; ok {
			entries = append(entries, storage.Entry{Key: k.Name, Value: v.Raw()})
		}
	}
	if err := r.store.Save(entries); err != nil {
		return &StoreWriteError{Path: path, Err: err}
	}
	return nil
}

func (r *Resolver) warn(w StoreCorruptionWarning) {
	r.warnings = append(r.warnings, w)
	fields := []zap.Field{zap.String("reason", w.Reason)}
	if w.Path != "" {
		fields = append(fields, zap.String("path", w.Path))
	}
	if w.Line > 0 {
		fields = append(fields, zap.Int("line", w.Line))
	}
	if w.Key != "" {
		fields = append(fields, zap.String("key", w.Key))
	}
	r.logger.Warn("ignoring invalid configuration input", fields...)
}
