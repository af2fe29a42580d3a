package snapshot

import (
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerMedium is the durable Medium, backed by an embedded BadgerDB
// directory. Session snapshots are small and written on every state-machine
// mutation, so sync writes are kept on.
type BadgerMedium struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the snapshot database at dir. Opening is
// retried a few times because a previous process may still be releasing the
// directory lock.
func OpenBadger(dir string, logger zerolog.Logger) (*BadgerMedium, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1)

	var db *badger.DB
	err := retry.Do(func() error {
		var err error
		db, err = badger.Open(opts)
		return err
	}, retry.Attempts(3), retry.Delay(500*time.Millisecond), retry.DelayType(retry.BackOffDelay))
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("unable to open snapshot database")
		return nil, err
	}
	return &BadgerMedium{db: db}, nil
}

func (m *BadgerMedium) Get(diagnosticCode string) ([]byte, bool, error) {
	var value []byte
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + diagnosticCode))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *BadgerMedium) Set(diagnosticCode string, value []byte) error {
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+diagnosticCode), value)
	})
}

func (m *BadgerMedium) Delete(diagnosticCode string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + diagnosticCode))
	})
}

func (m *BadgerMedium) Keys() ([]string, error) {
	var codes []string
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			codes = append(codes, strings.TrimPrefix(key, keyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (m *BadgerMedium) Close() error {
	return m.db.Close()
}
