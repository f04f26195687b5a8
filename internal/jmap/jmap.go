// Package jmap is a persistent map stored as a JSON object in a file.
//
// Every access runs in a transaction: the file is locked exclusively, optionally backed up, read, changed
// and rewritten in place before it is unlocked. Concurrent transactions on the same file, from this
// process or others, are therefore serialized.
package jmap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/pkg/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// DefaultBackupSuffix is appended to the path of a map to name its backup copy.
	DefaultBackupSuffix = ".bk"

	defaultDirPerms = 0o755
)

// Object is the content of a map. Keys keep the order they were read or added in.
type Object = orderedmap.OrderedMap[string, json.RawMessage]

// Map is a JSON object persisted in a file.
type Map struct {
	logger       log.Logger
	path         string
	backupSuffix string
	retryDelay   time.Duration
	sorted       bool
}

// New returns the map stored at path. The file must exist, see Create.
func New(path string, opts ...Option) *Map {
	m := &Map{
		logger:       log.Default(),
		path:         path,
		backupSuffix: DefaultBackupSuffix,
		retryDelay:   DefaultLockRetryDelay,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Path returns the path of the map file.
func (m *Map) Path() string {
	return m.path
}

// Get returns the value of key, or nil if key is not set.
func (m *Map) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value json.RawMessage

	err := m.Transaction(ctx, func(obj *Object) error {
		value, _ = obj.Get(key)
		return nil
	})

	return value, err
}

// Set sets key to the given JSON value.
func (m *Map) Set(ctx context.Context, key string, value json.RawMessage) error {
	return m.Transaction(ctx, Set(key, value).apply(io.Discard))
}

// Transaction locks the map file, reads the object, calls fn with it and writes it back. Nothing is written
// if fn fails.
func (m *Map) Transaction(ctx context.Context, fn func(obj *Object) error) error {
	file, err := os.OpenFile(m.path, os.O_RDWR, 0)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer file.Close() //nolint:errcheck

	lock := NewLockfile(m.path)
	if err := lock.Lock(ctx, m.logger, m.retryDelay); err != nil {
		return err
	}
	defer lock.Unlock(m.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if err := m.backup(file, data); err != nil {
		return err
	}

	obj, err := decode(data)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "parsing %s", m.path)
	}

	if err := fn(obj); err != nil {
		return err
	}

	if m.sorted {
		obj = sortKeys(obj)
	}

	return m.write(file, obj)
}

func (m *Map) backup(file *os.File, data []byte) error {
	if m.backupSuffix == "" {
		return nil
	}

	info, err := file.Stat()
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if err := os.WriteFile(m.path+m.backupSuffix, data, info.Mode().Perm()); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}

func (m *Map) write(file *os.File, obj *Object) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return errors.WithStackTrace(err)
	}

	data = append(data, '\n')

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return errors.WithStackTrace(err)
	}

	if _, err := file.Write(data); err != nil {
		return errors.WithStackTrace(err)
	}

	if err := file.Truncate(int64(len(data))); err != nil {
		return errors.WithStackTrace(err)
	}

	m.logger.Debugf("Wrote %d keys to %s", obj.Len(), m.path)

	return nil
}

// Create creates an empty map file at path, and its parent directories, unless it already exists.
func Create(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerms); err != nil {
		return errors.WithStackTrace(err)
	}

	file, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644) //nolint:mnd
	if err != nil {
		return errors.WithStackTrace(err)
	}

	return errors.WithStackTrace(file.Close())
}

func decode(data []byte) (*Object, error) {
	obj := orderedmap.New[string, json.RawMessage]()

	if len(bytes.TrimSpace(data)) == 0 {
		return obj, nil
	}

	if err := json.Unmarshal(data, obj); err != nil {
		return nil, err
	}

	return obj, nil
}

func sortKeys(obj *Object) *Object {
	keys := make([]string, 0, obj.Len())

	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	slices.Sort(keys)

	sorted := orderedmap.New[string, json.RawMessage](orderedmap.WithCapacity[string, json.RawMessage](len(keys)))

	for _, key := range keys {
		value, _ := obj.Get(key)
		sorted.Set(key, value)
	}

	return sorted
}

// Option configures a Map.
type Option func(*Map)

// WithBackupSuffix sets the suffix of the backup copy written before every transaction. An empty suffix
// disables backups.
func WithBackupSuffix(suffix string) Option {
	return func(m *Map) {
		m.backupSuffix = suffix
	}
}

// WithSortedKeys makes every transaction write the keys in lexical order, instead of appending new keys.
func WithSortedKeys(sorted bool) Option {
	return func(m *Map) {
		m.sorted = sorted
	}
}

// WithLockRetryDelay sets how long to wait between two attempts to lock the file.
func WithLockRetryDelay(delay time.Duration) Option {
	return func(m *Map) {
		m.retryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Map) {
		m.logger = logger
	}
}
