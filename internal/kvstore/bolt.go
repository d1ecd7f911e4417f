package kvstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	hashBucket   = []byte("entries")
	recordBucket = []byte("records")
)

const boltOpenTimeout = time.Second

func openBolt(path string, bucket []byte) (*bolt.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: err}
		}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: fmt.Errorf("failed to create bucket: %w", err)}
	}
	return db, nil
}

// boltHash implements HashStore on one bbolt bucket.
type boltHash struct {
	db   *bolt.DB
	path string
}

func openBoltHash(path string) (*boltHash, error) {
	db, err := openBolt(path, hashBucket)
	if err != nil {
		return nil, err
	}
	return &boltHash{db: db, path: path}, nil
}

func (s *boltHash) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(hashBucket).Get(key)
		if v == nil {
			return notFound("get", s.path)
		}
		// v is only valid for the lifetime of the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, wrapBolt("get", s.path, KindRead, err)
	}
	return out, nil
}

func (s *boltHash) Put(key, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(hashBucket).Put(key, value)
	})
	if err != nil {
		return wrapBolt("put", s.path, KindWrite, err)
	}
	return nil
}

func (s *boltHash) ForEach(fn func(key, value []byte) error) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(hashBucket).ForEach(fn)
	})
	if err != nil {
		return wrapBolt("foreach", s.path, KindRead, err)
	}
	return nil
}

func (s *boltHash) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(hashBucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, wrapBolt("len", s.path, KindRead, err)
	}
	return n, nil
}

func (s *boltHash) Close() error {
	if err := s.db.Close(); err != nil {
		return &Error{Op: "close", Path: s.path, Kind: KindClose, Err: err}
	}
	return nil
}

// boltRecords implements RecordStore on one bbolt bucket, numbering records
// with the bucket sequence.
type boltRecords struct {
	db   *bolt.DB
	path string
}

func openBoltRecords(path string) (*boltRecords, error) {
	db, err := openBolt(path, recordBucket)
	if err != nil {
		return nil, err
	}
	return &boltRecords{db: db, path: path}, nil
}

func (s *boltRecords) Append(value []byte) (uint64, error) {
	var key uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key = seq
		return b.Put(itob(seq), value)
	})
	if err != nil {
		return 0, wrapBolt("append", s.path, KindWrite, err)
	}
	return key, nil
}

func (s *boltRecords) Get(key uint64) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(recordBucket).Get(itob(key))
		if v == nil {
			return notFound("get", s.path)
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, wrapBolt("get", s.path, KindRead, err)
	}
	return out, nil
}

func (s *boltRecords) Put(key uint64, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordBucket)
		if key == 0 || key > b.Sequence() {
			return notFound("put", s.path)
		}
		return b.Put(itob(key), value)
	})
	if err != nil {
		return wrapBolt("put", s.path, KindWrite, err)
	}
	return nil
}

func (s *boltRecords) Close() error {
	if err := s.db.Close(); err != nil {
		return &Error{Op: "close", Path: s.path, Kind: KindClose, Err: err}
	}
	return nil
}

// wrapBolt passes *Error values through and classifies everything else as kind.
func wrapBolt(op, path string, kind Kind, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
