// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buck-labs/buck-v1-sub000/cache"
)

func TestNewLRU(t *testing.T) {
	_, err := cache.NewLRU(0)
	assert.Error(t, err)

	c, err := cache.NewLRU(2)
	assert.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now the least recently used entry
	c.Add("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}
