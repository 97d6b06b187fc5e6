// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"encoding/binary"
	"math/big"
)

// Phase describes where an epoch stands relative to a point in time.
type Phase string

const (
	PhasePending        Phase = "pending"
	PhaseOpen           Phase = "open"
	PhaseCheckpoint     Phase = "checkpoint"
	PhasePostCheckpoint Phase = "post-checkpoint"
	PhaseClosed         Phase = "closed"
	PhaseDistributed    Phase = "distributed"
)

// Epoch is one reward window. Times are unix seconds, spans are half-open
// [start, end). AccrualStart is the start time clamped to the moment the
// epoch was configured, so no unit accrues retroactively.
type Epoch struct {
	ID              uint64
	StartTime       uint64
	EndTime         uint64
	CheckpointStart uint64
	CheckpointEnd   uint64
	AccrualStart    uint64
	Distributed     bool
}

// PhaseAt resolves the phase of the epoch at the given time.
func (e *Epoch) PhaseAt(now uint64) Phase {
	if e.Distributed {
		return PhaseDistributed
	}
	switch {
	case now < e.StartTime:
		return PhasePending
	case now < e.CheckpointStart:
		return PhaseOpen
	case now < e.CheckpointEnd:
		return PhaseCheckpoint
	case now < e.EndTime:
		return PhasePostCheckpoint
	default:
		return PhaseClosed
	}
}

// Contains reports whether now falls inside the epoch window.
func (e *Epoch) Contains(now uint64) bool {
	return now >= e.StartTime && now < e.EndTime
}

// InLateWindow reports whether a balance increase at now makes the receiving
// account ineligible for this epoch.
func (e *Epoch) InLateWindow(now uint64) bool {
	return now >= e.CheckpointStart && now < e.EndTime
}

// OverlapSeconds returns the length of the overlap between [from, to) and
// the accrual span [AccrualStart, EndTime).
func (e *Epoch) OverlapSeconds(from, to uint64) uint64 {
	if from < e.AccrualStart {
		from = e.AccrualStart
	}
	if to > e.EndTime {
		to = e.EndTime
	}
	if to <= from {
		return 0
	}
	return to - from
}

// RemainingSeconds returns the seconds left until the epoch end, clamped to
// the accrual span.
func (e *Epoch) RemainingSeconds(now uint64) uint64 {
	return e.OverlapSeconds(now, e.EndTime)
}

// Report is the immutable record written by a distribution. Reports form an
// append-only log ordered by distribution time.
type Report struct {
	Epoch            uint64
	DistributionTime uint64
	DeltaIndex       *big.Int
	DenominatorUnits *big.Int
	TokensAllocated  *big.Int
	DustCarried      *big.Int
}

// key adapts a log index or epoch id to a mapping key.
type key uint64

func (k key) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}
