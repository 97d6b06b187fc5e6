// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
)

func TestStorage(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := New(db)

	addr := buck.BytesToAddress([]byte("addr"))
	key := buck.Blake2b([]byte("key"))
	value := buck.Blake2b([]byte("value"))

	got, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, buck.Bytes32{}, got)

	st.SetStorage(addr, key, value)
	got, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// zero value deletes the slot
	st.SetStorage(addr, key, buck.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Zero(t, len(raw))
}

func TestRawStorage(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := New(db)

	addr := buck.BytesToAddress([]byte("addr"))
	key := buck.Blake2b([]byte("key"))

	data, _ := rlp.EncodeToBytes([]byte{1, 2, 3})
	st.SetRawStorage(addr, key, data)

	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue(data), raw)
}

func TestStorageBadEncoding(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := New(db)

	addr := buck.BytesToAddress([]byte("addr"))
	key := buck.Blake2b([]byte("key"))

	st.SetRawStorage(addr, key, rlp.RawValue{0xFF})
	_, err := st.GetStorage(addr, key)
	assert.Error(t, err)
	assert.IsType(t, &Error{}, err)
}

func TestEncodeDecodeStorage(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := New(db)

	addr := buck.BytesToAddress([]byte("addr"))
	key := buck.Blake2b([]byte("key"))

	stored := big.NewInt(992357)
	err := st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(stored)
	})
	require.NoError(t, err)

	var loaded big.Int
	err = st.DecodeStorage(addr, key, func(b []byte) error {
		if len(b) == 0 {
			return nil
		}
		return rlp.DecodeBytes(b, &loaded)
	})
	require.NoError(t, err)
	assert.Equal(t, stored, &loaded)
}

func TestCheckpointRevert(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := New(db)

	addr := buck.BytesToAddress([]byte("addr"))
	key := buck.Blake2b([]byte("key"))
	v1 := buck.Blake2b([]byte("v1"))
	v2 := buck.Blake2b([]byte("v2"))

	st.SetStorage(addr, key, v1)

	chk := st.NewCheckpoint()
	st.SetStorage(addr, key, v2)

	got, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v2, got)

	st.RevertTo(chk)
	got, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v1, got)
}

func TestStageCommit(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := New(db)

	addr := buck.BytesToAddress([]byte("addr"))
	kept := buck.Blake2b([]byte("kept"))
	gone := buck.Blake2b([]byte("gone"))

	st.SetStorage(addr, gone, buck.Blake2b([]byte("soon removed")))
	st.SetStorage(addr, kept, buck.Blake2b([]byte("v")))
	st.SetStorage(addr, gone, buck.Bytes32{})

	stage, err := st.Stage()
	require.NoError(t, err)
	assert.True(t, stage.Len() > 0)
	require.NoError(t, stage.Commit())

	// a fresh state over the same store sees committed values only
	st2 := New(db)
	got, err := st2.GetStorage(addr, kept)
	require.NoError(t, err)
	assert.Equal(t, buck.Blake2b([]byte("v")), got)

	raw, err := st2.GetRawStorage(addr, gone)
	require.NoError(t, err)
	assert.Zero(t, len(raw))
}

func TestUncommittedNotPersisted(t *testing.T) {
	db, _ := lvldb.NewMem()

	addr := buck.BytesToAddress([]byte("addr"))
	key := buck.Blake2b([]byte("key"))

	st := New(db)
	st.SetStorage(addr, key, buck.Blake2b([]byte("v")))

	st2 := New(db)
	got, err := st2.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, buck.Bytes32{}, got)
}
