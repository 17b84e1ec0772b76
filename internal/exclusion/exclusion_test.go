package exclusion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/pkg/logger"
)

// failingStore fails every operation
type failingStore struct{}

var errBroken = errors.New("disk on fire")

func (failingStore) Get(context.Context, string) (Record, error) { return Record{}, errBroken }
func (failingStore) Put(context.Context, string, Record) error   { return errBroken }
func (failingStore) Delete(context.Context, string) error        { return errBroken }

func TestKey(t *testing.T) {
	k := Key("/data/trades.csv")
	assert.Len(t, k, keyLength)
	assert.Equal(t, k, Key("/data/trades.csv"))
	assert.NotEqual(t, k, Key("/data/other.csv"))
}

func TestResolve_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(target, []byte("pnl\n1\n"), 0o644))
	link := filepath.Join(dir, "link.csv")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	a, err := Resolve(target)
	require.NoError(t, err)
	b, err := Resolve(link)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestManager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewFileStore(t.TempDir()), nil)
	source := filepath.Join(t.TempDir(), "trades.csv")

	require.NoError(t, m.Save(ctx, source, NewSet("b", "a")))

	got, err := m.Load(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, NewSet("a", "b"), got)
}

func TestManager_UnknownSourceIsEmpty(t *testing.T) {
	m := NewManager(NewFileStore(t.TempDir()), nil)

	got, err := m.Load(context.Background(), "/never/saved.csv")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestManager_SourcesAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewFileStore(t.TempDir()), nil)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	require.NoError(t, m.Save(ctx, first, NewSet("rsi")))
	require.NoError(t, m.Save(ctx, second, NewSet("atr", "volume")))
	require.NoError(t, m.Save(ctx, first, NewSet("rsi", "macd")))

	got, _ := m.Load(ctx, first)
	assert.Equal(t, NewSet("rsi", "macd"), got)
	got, _ = m.Load(ctx, second)
	assert.Equal(t, NewSet("atr", "volume"), got)
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewFileStore(t.TempDir()), nil)
	source := filepath.Join(t.TempDir(), "trades.csv")

	require.NoError(t, m.Save(ctx, source, NewSet("rsi")))
	require.NoError(t, m.Clear(ctx, source))
	got, err := m.Load(ctx, source)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, m.Clear(ctx, source), "clearing twice is fine")
}

func TestManager_FailuresDegrade(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(failingStore{}, logger.NewWithWriter(&buf, "debug"))
	ctx := context.Background()

	err := m.Save(ctx, "trades.csv", NewSet("rsi"))
	assert.ErrorIs(t, err, errBroken)

	got, err := m.Load(ctx, "trades.csv")
	assert.ErrorIs(t, err, errBroken)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Contains(t, buf.String(), "Failed to save feature exclusions")
	assert.Contains(t, buf.String(), "Failed to load feature exclusions")
}

func TestFileStore_SortedRecordOnDisk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := NewManager(NewFileStore(root), nil)
	source := filepath.Join(t.TempDir(), "trades.csv")

	require.NoError(t, m.Save(ctx, source, NewSet("zeta", "alpha", "mid")))

	resolved, err := Resolve(source)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(root, Key(resolved)+".json"))
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, resolved, rec.SourceFile)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, rec.Exclusions)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := NewManager(NewFileStore(root), nil)
	source := filepath.Join(t.TempDir(), "trades.csv")

	resolved, err := Resolve(source)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, Key(resolved)+".json"), []byte("{not json"), 0o644))

	got, err := m.Load(ctx, source)
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestFileStore_Missing(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, err := s.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "abc"), ErrNotFound)
}

func TestSet_Sorted(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, NewSet("c", "a", "b", "a").Sorted())
	assert.Equal(t, []string{}, Set{}.Sorted())
	assert.True(t, NewSet("x").Has("x"))
	assert.False(t, NewSet("x").Has("y"))
}

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, "feature_exclusions", filepath.Base(dir))
}
