// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// defines individual functions implementing interface methods.

type (
	GetFunc         func(key []byte) ([]byte, error)
	HasFunc         func(key []byte) (bool, error)
	IsNotFoundFunc  func(err error) bool
	NewIteratorFunc func(r Range) Iterator
	PutFunc         func(key, val []byte) error
	DeleteFunc      func(key []byte) error
	NewBatchFunc    func() Batch
)

func (f GetFunc) Get(key []byte) ([]byte, error)       { return f(key) }
func (f HasFunc) Has(key []byte) (bool, error)         { return f(key) }
func (f IsNotFoundFunc) IsNotFound(err error) bool     { return f(err) }
func (f NewIteratorFunc) NewIterator(r Range) Iterator { return f(r) }
func (f PutFunc) Put(key, val []byte) error            { return f(key, val) }
func (f DeleteFunc) Delete(key []byte) error           { return f(key) }
func (f NewBatchFunc) NewBatch() Batch                 { return f() }
