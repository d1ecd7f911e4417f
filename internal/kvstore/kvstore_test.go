package kvstore

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backends = []Backend{BackendBolt, BackendSQLite}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", BackendBolt, false},
		{"bolt", BackendBolt, false},
		{" SQLite ", BackendSQLite, false},
		{"berkeley", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedBackend)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestHashStore(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "strings.db")
			s, err := OpenHash(backend, path)
			require.NoError(t, err)
			defer s.Close()

			_, err = s.Get([]byte("missing"))
			assert.True(t, IsNotFound(err))
			assert.Equal(t, KindNotFound, KindOf(err))

			require.NoError(t, s.Put([]byte("b"), []byte("2")))
			require.NoError(t, s.Put([]byte("a"), []byte("1")))
			require.NoError(t, s.Put([]byte("a"), []byte("one")))

			v, err := s.Get([]byte("a"))
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), v)

			n, err := s.Len()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			var keys []string
			require.NoError(t, s.ForEach(func(k, _ []byte) error {
				keys = append(keys, string(k))
				return nil
			}))
			sort.Strings(keys)
			assert.Equal(t, []string{"a", "b"}, keys)

			stop := errors.New("stop")
			err = s.ForEach(func(_, _ []byte) error { return stop })
			assert.ErrorIs(t, err, stop)
		})
	}
}

func TestHashStore_Reopen(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "words.db")
			s, err := OpenHash(backend, path)
			require.NoError(t, err)
			require.NoError(t, s.Put([]byte("k"), []byte("v")))
			require.NoError(t, s.Close())

			s, err = OpenHash(backend, path)
			require.NoError(t, err)
			defer s.Close()
			v, err := s.Get([]byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), v)
		})
	}
}

func TestRecordStore(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "translations.db")
			s, err := OpenRecords(backend, path)
			require.NoError(t, err)

			k1, err := s.Append([]byte("first"))
			require.NoError(t, err)
			k2, err := s.Append([]byte("second"))
			require.NoError(t, err)
			assert.Equal(t, uint64(1), k1)
			assert.Greater(t, k2, k1)

			require.NoError(t, s.Put(k1, []byte("updated")))
			v, err := s.Get(k1)
			require.NoError(t, err)
			assert.Equal(t, []byte("updated"), v)

			_, err = s.Get(99)
			assert.True(t, IsNotFound(err))

			err = s.Put(99, []byte("x"))
			assert.True(t, IsNotFound(err), "Put must not allocate new records")

			require.NoError(t, s.Close())

			// numbering continues after reopen
			s, err = OpenRecords(backend, path)
			require.NoError(t, err)
			defer s.Close()
			k3, err := s.Append([]byte("third"))
			require.NoError(t, err)
			assert.Greater(t, k3, k2)
		})
	}
}

type stubResult struct {
	rows int64
	err  error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, r.err }
func (r stubResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckUpdated(t *testing.T) {
	assert.NoError(t, checkUpdated("put", "/tmp/x.db", stubResult{rows: 1}))
	assert.True(t, IsNotFound(checkUpdated("put", "/tmp/x.db", stubResult{})))

	boom := errors.New("driver failure")
	err := checkUpdated("put", "/tmp/x.db", stubResult{err: boom})
	assert.False(t, IsNotFound(err), "driver failures are not misses")
	assert.Equal(t, KindWrite, KindOf(err))
	assert.ErrorIs(t, err, boom)
}

func TestOpen_UnsupportedBackend(t *testing.T) {
	_, err := OpenHash("gdbm", filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
	assert.Equal(t, KindOpen, KindOf(err))

	_, err = OpenRecords("gdbm", filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestError_Message(t *testing.T) {
	err := &Error{Op: "get", Path: "/tmp/x.db", Kind: KindRead, Err: errors.New("boom")}
	assert.Equal(t, "kvstore get /tmp/x.db: read: boom", err.Error())
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "f1.db")
	require.NoError(t, os.WriteFile(f1, []byte("hello"), 0644))

	got, err := DiskUsageBytes(f1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644))

	got, err = DiskUsageBytes(dir, filepath.Join(dir, "missing"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}
