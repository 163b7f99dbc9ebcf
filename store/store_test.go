package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultmatch/vault-engine/types"
)

func TestStore_putGetCell(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close() // nolint: errcheck

	addr := types.ExternalAddress("vault")

	_, found, err := s.GetCell(addr)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.PutCell(addr, []byte("state-v1")))

	got, found, err := s.GetCell(addr)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("state-v1"), got)

	// overwrite wins
	require.NoError(t, s.PutCell(addr, []byte("state-v2")))
	got, _, err = s.GetCell(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("state-v2"), got)
}

func TestStore_cellsIteration(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close() // nolint: errcheck

	want := map[types.Address][]byte{
		types.ExternalAddress("a"): []byte("one"),
		types.ExternalAddress("b"): []byte("two"),
		types.ExternalAddress("c"): []byte("three"),
	}
	for addr, state := range want {
		require.NoError(t, s.PutCell(addr, state))
	}

	got := make(map[types.Address][]byte)
	err = s.Cells(func(addr types.Address, state []byte) error {
		got[addr] = append([]byte{}, state...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
