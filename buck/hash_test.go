// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package buck

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBlake2b(t *testing.T) {
	hasher := NewBlake2b()
	if hasher == nil {
		t.Error("NewBlake2b returned nil")
	}

	hasher.Write([]byte("Buck"))
	sum := hasher.Sum(nil)
	if len(sum) != 32 {
		t.Errorf("Expected BLAKE2b-256 hash length of 32, got %d", len(sum))
	}
}

func TestBlake2b(t *testing.T) {
	singleData := []byte("data")
	multipleData := [][]byte{[]byte("multi"), []byte("ple"), []byte("data")}

	singleHash := Blake2b(singleData)
	if len(singleHash) != 32 {
		t.Errorf("Expected hash length of 32, got %d", len(singleHash))
	}

	multiHash := Blake2b(multipleData...)
	if len(multiHash) != 32 {
		t.Errorf("Expected hash length of 32, got %d", len(multiHash))
	}

	if singleHash == multiHash {
		t.Error("Expected different hashes for different data")
	}
}

func TestBlake2bFn(t *testing.T) {
	h := Blake2bFn(func(w io.Writer) {
		w.Write([]byte("custom writer"))
	})

	assert.Equal(t, Blake2b([]byte("custom writer")), h)
}
