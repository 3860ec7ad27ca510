package storage

import (
	"bytes"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/adenium-io/adenium-go/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(testing.TB) Store
}

type dbTestFunction func(*testing.T, Store)

func newMemoryStoreForTesting(t testing.TB) Store {
	return NewMemoryStore()
}

func newMemCachedStoreForTesting(t testing.TB) Store {
	return NewMemCachedStore(NewMemoryStore())
}

func newLevelDBForTesting(t testing.TB) Store {
	s, err := NewLevelDBStore(dbconfig.LevelDBOptions{DataDirectoryPath: t.TempDir()})
	require.NoError(t, err, "NewLevelDBStore error")
	return s
}

func newBoltStoreForTesting(t testing.TB) Store {
	s, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "test_bolt_db")})
	require.NoError(t, err)
	return s
}

func newPebbleStoreForTesting(t testing.TB) Store {
	s, err := NewPebbleStore(dbconfig.PebbleDBOptions{DataDirectoryPath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func newCompressedStoreForTesting(t testing.TB) Store {
	return NewCompressedStore(NewMemoryStore())
}

func newPrefixStoreForTesting(t testing.TB) Store {
	return NewPrefixStore(NewMemoryStore(), DataTrie)
}

func testStoreGetNonExistent(t *testing.T, s Store) {
	key := []byte("sparse")

	_, err := s.Get(key)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	ok, err := Has(s, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func testStorePutGetDelete(t *testing.T, s Store) {
	key, value := []byte("foo"), []byte("bar")
	require.NoError(t, s.Put(key, value))

	v, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, v)
	ok, err := Has(s, key)
	require.NoError(t, err)
	require.True(t, ok)

	long := bytes.Repeat([]byte("compressible"), 100)
	require.NoError(t, s.Put(key, long))
	v, err = s.Get(key)
	require.NoError(t, err)
	require.Equal(t, long, v)

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
	// Idempotent.
	require.NoError(t, s.Delete(key))
	require.NoError(t, s.Flush())
}

func testStorePutChangeSet(t *testing.T, s Store) {
	require.NoError(t, s.Put([]byte("gone"), []byte{1}))
	require.NoError(t, s.PutChangeSet(map[string][]byte{
		"k1":   {1},
		"k2":   {2},
		"gone": nil,
	}))
	for k, v := range map[string][]byte{"k1": {1}, "k2": {2}} {
		actual, err := s.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, actual)
	}
	_, err := s.Get([]byte("gone"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func pushSeekDataSet(t *testing.T, s Store) []KeyValue {
	// Use the same set of kvs to test Seek with different prefix/start values.
	kvs := []KeyValue{
		{[]byte("10"), []byte("bar")},
		{[]byte("11"), []byte("bara")},
		{[]byte("20"), []byte("barb")},
		{[]byte("21"), []byte("barc")},
		{[]byte("22"), []byte("bard")},
		{[]byte("30"), []byte("bare")},
		{[]byte("31"), []byte("barf")},
	}
	up := NewMemCachedStore(s)
	for _, v := range kvs {
		require.NoError(t, up.Put(v.Key, v.Value))
	}
	_, err := up.Persist()
	require.NoError(t, err)
	return kvs
}

func testStoreSeek(t *testing.T, s Store) {
	kvs := pushSeekDataSet(t, s)
	check := func(t *testing.T, rng SeekRange, goodkvs []KeyValue, cont func(k, v []byte) bool) {
		actual := make([]KeyValue, 0, len(goodkvs))
		s.Seek(rng, func(k, v []byte) bool {
			actual = append(actual, KeyValue{
				Key:   bytes.Clone(k),
				Value: bytes.Clone(v),
			})
			if cont == nil {
				return true
			}
			return cont(k, v)
		})
		assert.Equal(t, goodkvs, actual)
	}

	t.Run("prefix", func(t *testing.T) {
		check(t, SeekRange{Prefix: []byte("2")}, kvs[2:5], nil)
	})
	t.Run("prefix and start", func(t *testing.T) {
		check(t, SeekRange{Prefix: []byte("2"), Start: []byte("1")}, kvs[3:5], nil)
	})
	t.Run("everything", func(t *testing.T) {
		check(t, SeekRange{}, kvs, nil)
	})
	t.Run("early stop", func(t *testing.T) {
		check(t, SeekRange{Prefix: []byte("1")}, kvs[:1], func(k, v []byte) bool {
			return false
		})
	})
	t.Run("missing prefix", func(t *testing.T) {
		check(t, SeekRange{Prefix: []byte("4")}, []KeyValue{}, nil)
	})
}

func TestAllDBs(t *testing.T) {
	var DBs = []dbSetup{
		{"BoltDB", newBoltStoreForTesting},
		{"LevelDB", newLevelDBForTesting},
		{"Pebble", newPebbleStoreForTesting},
		{"MemCached", newMemCachedStoreForTesting},
		{"Memory", newMemoryStoreForTesting},
		{"Compressed", newCompressedStoreForTesting},
		{"Prefix", newPrefixStoreForTesting},
	}
	var tests = []dbTestFunction{testStoreGetNonExistent, testStorePutGetDelete,
		testStorePutChangeSet, testStoreSeek}
	for _, db := range DBs {
		for _, test := range tests {
			s := db.create(t)
			twrapper := func(t *testing.T) {
				test(t, s)
			}
			fname := runtime.FuncForPC(reflect.ValueOf(test).Pointer()).Name()
			t.Run(db.name+"/"+fname, twrapper)
			require.NoError(t, s.Close())
		}
	}
}

func TestStorageNames(t *testing.T) {
	tmp := t.TempDir()
	cfg := dbconfig.DBConfiguration{
		LevelDBOptions: dbconfig.LevelDBOptions{
			DataDirectoryPath: filepath.Join(tmp, "level"),
		},
		BoltDBOptions: dbconfig.BoltDBOptions{
			FilePath: filepath.Join(tmp, "bolt"),
		},
		PebbleDBOptions: dbconfig.PebbleDBOptions{
			DataDirectoryPath: filepath.Join(tmp, "pebble"),
		},
	}
	for _, name := range []string{dbconfig.BoltDB, dbconfig.LevelDB, dbconfig.PebbleDB, dbconfig.InMemoryDB} {
		t.Run(name, func(t *testing.T) {
			cfg.Type = name
			s, err := NewStore(cfg)
			require.NoError(t, err)
			require.NoError(t, s.Close())
		})
	}
	t.Run("lz4", func(t *testing.T) {
		cfg.Type = dbconfig.InMemoryDB
		cfg.Compression = dbconfig.LZ4Compression
		s, err := NewStore(cfg)
		require.NoError(t, err)
		require.IsType(t, &CompressedStore{}, s)
		require.NoError(t, s.Close())
	})
	t.Run("unknown type", func(t *testing.T) {
		cfg.Type = "badgerdb"
		_, err := NewStore(cfg)
		require.ErrorIs(t, err, dbconfig.ErrUnknownType)
	})
	t.Run("unknown compression", func(t *testing.T) {
		cfg.Type = dbconfig.InMemoryDB
		cfg.Compression = "zstd"
		_, err := NewStore(cfg)
		require.ErrorIs(t, err, dbconfig.ErrUnknownCompression)
	})
}

func TestReopenPersistence(t *testing.T) {
	tmp := t.TempDir()
	cfgs := []dbconfig.DBConfiguration{
		{Type: dbconfig.LevelDB, LevelDBOptions: dbconfig.LevelDBOptions{DataDirectoryPath: filepath.Join(tmp, "level")}},
		{Type: dbconfig.BoltDB, BoltDBOptions: dbconfig.BoltDBOptions{FilePath: filepath.Join(tmp, "bolt", "db")}},
		{Type: dbconfig.PebbleDB, Compression: dbconfig.LZ4Compression, PebbleDBOptions: dbconfig.PebbleDBOptions{DataDirectoryPath: filepath.Join(tmp, "pebble")}},
	}
	for _, cfg := range cfgs {
		t.Run(cfg.Type, func(t *testing.T) {
			s, err := NewStore(cfg)
			require.NoError(t, err)
			require.NoError(t, PutVersion(s, "0.1"))
			require.NoError(t, s.PutChangeSet(map[string][]byte{"key": []byte("value")}))
			require.NoError(t, s.Flush())
			require.NoError(t, s.Close())

			s, err = NewStore(cfg)
			require.NoError(t, err)
			v, err := s.Get([]byte("key"))
			require.NoError(t, err)
			require.Equal(t, []byte("value"), v)
			ver, err := Version(s)
			require.NoError(t, err)
			require.Equal(t, "0.1", ver)
			require.NoError(t, s.Close())
		})
	}
}
