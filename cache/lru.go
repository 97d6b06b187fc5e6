// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides the caching primitives shared by the service layers.
package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a size-bounded cache with least-recently-used eviction. It extends
// golang-lru and is safe for concurrent use.
type LRU struct {
	*lru.Cache
}

// NewLRU creates an LRU cache instance.
// maxSize should be > 0, or an error is returned.
func NewLRU(maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache}, nil
}
