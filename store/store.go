package store

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/vaultmatch/vault-engine/types"
)

// Store is the durable backing for actor state cells, keyed by address. The
// ledger writes a cell after every processed message; readers see the state
// as of the last committed message.
type Store struct {
	db *pebble.DB
}

var cellPrefix = []byte("cell/")

func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open cell store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func cellKey(addr types.Address) []byte {
	return append(append([]byte{}, cellPrefix...), addr.Bytes()...)
}

func (s *Store) PutCell(addr types.Address, state []byte) error {
	if err := s.db.Set(cellKey(addr), state, pebble.Sync); err != nil {
		return fmt.Errorf("failed to put cell %s: %w", addr.Short(), err)
	}
	return nil
}

// GetCell returns the stored cell, or found=false if the address has none.
func (s *Store) GetCell(addr types.Address) (state []byte, found bool, err error) {
	val, closer, err := s.db.Get(cellKey(addr))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cell %s: %w", addr.Short(), err)
	}
	out := make([]byte, len(val))
	copy(out, val)
	if err := closer.Close(); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Cells iterates over all stored cells in address order.
func (s *Store) Cells(fn func(addr types.Address, state []byte) error) error {
	upper := append([]byte{}, cellPrefix...)
	upper[len(upper)-1]++
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: cellPrefix,
		UpperBound: upper,
	})
	if err != nil {
		return fmt.Errorf("failed to open cell iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		addr, err := types.AddressFromBytes(iter.Key()[len(cellPrefix):])
		if err != nil {
			return fmt.Errorf("corrupt cell key: %w", err)
		}
		if err := fn(addr, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}
