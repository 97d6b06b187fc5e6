// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
)

// Epoch is one configured reward window plus its phase at request time.
type Epoch struct {
	ID              uint64       `json:"id"`
	StartTime       uint64       `json:"startTime"`
	EndTime         uint64       `json:"endTime"`
	CheckpointStart uint64       `json:"checkpointStart"`
	CheckpointEnd   uint64       `json:"checkpointEnd"`
	AccrualStart    uint64       `json:"accrualStart"`
	Distributed     bool         `json:"distributed"`
	Phase           epochs.Phase `json:"phase"`
}

func convertEpoch(e *epochs.Epoch, now uint64) *Epoch {
	return &Epoch{
		ID:              e.ID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		CheckpointStart: e.CheckpointStart,
		CheckpointEnd:   e.CheckpointEnd,
		AccrualStart:    e.AccrualStart,
		Distributed:     e.Distributed,
		Phase:           e.PhaseAt(now),
	}
}

// ConfigureRequest appends one epoch to the schedule.
type ConfigureRequest struct {
	Caller          buck.Address `json:"caller"`
	ID              uint64       `json:"id"`
	StartTime       uint64       `json:"startTime"`
	EndTime         uint64       `json:"endTime"`
	CheckpointStart uint64       `json:"checkpointStart"`
	CheckpointEnd   uint64       `json:"checkpointEnd"`
}
