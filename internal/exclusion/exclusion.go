// Package exclusion persists, per source file, the columns a user excludes
// from feature impact analysis.
//
// Persistence is best-effort: Save and Load log every failure and degrade to a
// no-op or an empty set. The error is still returned so callers and tests can
// see it, but it never has to abort an analysis.
package exclusion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/wonny/tradelens/pkg/logger"
)

// keyLength is the number of hex characters kept from the path hash
const keyLength = 16

// Set is a set of column names
type Set map[string]struct{}

// NewSet builds a set from names
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in ascending order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Record is the stored form of one source file's exclusions
type Record struct {
	SourceFile string   `json:"source_file"`
	Exclusions []string `json:"exclusions"`
}

// Resolve returns the absolute path with symlinks resolved where possible
func Resolve(sourceFile string) (string, error) {
	abs, err := filepath.Abs(sourceFile)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", sourceFile, err)
	}
	if evaluated, err := filepath.EvalSymlinks(abs); err == nil {
		return evaluated, nil
	}
	return abs, nil
}

// Key derives the storage key: the first 16 hex chars of sha256(resolved path)
func Key(resolved string) string {
	sum := sha256.Sum256([]byte(resolved))
	return hex.EncodeToString(sum[:])[:keyLength]
}

// Manager saves and loads exclusion sets through a Store
type Manager struct {
	store  Store
	logger *logger.Logger
}

// NewManager creates an exclusion manager
func NewManager(store Store, log *logger.Logger) *Manager {
	return &Manager{store: store, logger: logger.OrNop(log)}
}

// Save writes the exclusions for sourceFile, sorted. Failures are logged and returned.
func (m *Manager) Save(ctx context.Context, sourceFile string, exclusions Set) error {
	resolved, err := Resolve(sourceFile)
	if err != nil {
		m.logger.WithError(err).WithField("source_file", sourceFile).Error("Failed to save feature exclusions")
		return err
	}

	rec := Record{SourceFile: resolved, Exclusions: exclusions.Sorted()}
	if err := m.store.Put(ctx, Key(resolved), rec); err != nil {
		m.logger.WithError(err).WithField("source_file", resolved).Error("Failed to save feature exclusions")
		return fmt.Errorf("save exclusions: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"source_file": resolved,
		"count":       len(rec.Exclusions),
	}).Debug("Feature exclusions saved")
	return nil
}

// Load returns the saved exclusions for sourceFile.
// The set is never nil: a missing record is an empty set with no error,
// an unreadable one is an empty set with the error (also logged).
func (m *Manager) Load(ctx context.Context, sourceFile string) (Set, error) {
	resolved, err := Resolve(sourceFile)
	if err != nil {
		m.logger.WithError(err).WithField("source_file", sourceFile).Warn("Failed to load feature exclusions")
		return Set{}, err
	}

	rec, err := m.store.Get(ctx, Key(resolved))
	if errors.Is(err, ErrNotFound) {
		return Set{}, nil
	}
	if err != nil {
		m.logger.WithError(err).WithField("source_file", resolved).Warn("Failed to load feature exclusions")
		return Set{}, fmt.Errorf("load exclusions: %w", err)
	}
	return NewSet(rec.Exclusions...), nil
}

// Clear removes the record for sourceFile; a missing record is not an error
func (m *Manager) Clear(ctx context.Context, sourceFile string) error {
	resolved, err := Resolve(sourceFile)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, Key(resolved)); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.WithError(err).WithField("source_file", resolved).Error("Failed to clear feature exclusions")
		return fmt.Errorf("clear exclusions: %w", err)
	}
	return nil
}
