// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"github.com/buck-labs/buck-v1-sub000/rewards/reverts"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
)

const (
	slotEpochCount         = "epoch-count"
	slotEpochs             = "epochs"
	slotReportCount        = "report-count"
	slotReports            = "reports"
	slotReportOfEpoch      = "report-of-epoch"
	slotDistributedThrough = "distributed-through"
)

// Service manages the epoch schedule and the append-only distribution
// report log. Epoch ids are consecutive starting at 1 and windows never
// overlap, so lookups by time can bisect the schedule.
type Service struct {
	epochs             *storage.Mapping[key, *Epoch]
	count              *storage.Uint64
	reports            *storage.Mapping[key, *Report]
	reportCount        *storage.Uint64
	reportOfEpoch      *storage.Mapping[key, uint64]
	distributedThrough *storage.Uint64
}

func New(sctx *storage.Context) *Service {
	return &Service{
		epochs:             storage.NewMapping[key, *Epoch](sctx, slotEpochs),
		count:              storage.NewUint64(sctx, slotEpochCount),
		reports:            storage.NewMapping[key, *Report](sctx, slotReports),
		reportCount:        storage.NewUint64(sctx, slotReportCount),
		reportOfEpoch:      storage.NewMapping[key, uint64](sctx, slotReportOfEpoch),
		distributedThrough: storage.NewUint64(sctx, slotDistributedThrough),
	}
}

// Count returns the number of configured epochs.
func (s *Service) Count() (uint64, error) {
	return s.count.Get()
}

// Get returns the epoch with the given id, nil when the id is out of range.
func (s *Service) Get(id uint64) (*Epoch, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	if id == 0 || id > count {
		return nil, nil
	}
	return s.epochs.Get(key(id))
}

// Latest returns the last configured epoch, nil when none exists.
func (s *Service) Latest() (*Epoch, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return s.epochs.Get(key(count))
}

// Add appends an epoch to the schedule. The epoch must carry the next
// consecutive id, a strictly ordered window, and must not be over yet.
// AccrualStart is stamped here so accrual never reaches back before the
// configuration time.
func (s *Service) Add(e *Epoch, now uint64) error {
	count, err := s.count.Get()
	if err != nil {
		return err
	}
	if e.ID != count+1 {
		return reverts.InvalidConfig("epoch id must be %d, got %d", count+1, e.ID)
	}
	if e.StartTime >= e.CheckpointStart {
		return reverts.InvalidConfig("checkpoint start must be after epoch start")
	}
	if e.CheckpointStart >= e.CheckpointEnd {
		return reverts.InvalidConfig("checkpoint end must be after checkpoint start")
	}
	if e.CheckpointEnd >= e.EndTime {
		return reverts.InvalidConfig("epoch end must be after checkpoint end")
	}
	if e.EndTime <= now {
		return reverts.InvalidConfig("epoch %d would already be over", e.ID)
	}
	if count > 0 {
		prev, err := s.epochs.Get(key(count))
		if err != nil {
			return err
		}
		if e.StartTime < prev.EndTime {
			return reverts.InvalidConfig("epoch %d overlaps epoch %d", e.ID, prev.ID)
		}
	}

	e.Distributed = false
	e.AccrualStart = e.StartTime
	if now > e.AccrualStart {
		e.AccrualStart = now
	}
	if err := s.epochs.Set(key(e.ID), e); err != nil {
		return err
	}
	s.count.Set(e.ID)
	return nil
}

// ReferenceAt returns the epoch with the greatest start time not after now,
// nil when now is before the whole schedule.
func (s *Service) ReferenceAt(now uint64) (*Epoch, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	var found *Epoch
	lo, hi := uint64(1), count
	for lo <= hi {
		mid := lo + (hi-lo)/2
		e, err := s.epochs.Get(key(mid))
		if err != nil {
			return nil, err
		}
		if e.StartTime <= now {
			found = e
			lo = mid + 1
		} else {
			if mid == 1 {
				break
			}
			hi = mid - 1
		}
	}
	return found, nil
}

// At returns the epoch whose window contains now, nil when now falls in a
// gap or outside the schedule.
func (s *Service) At(now uint64) (*Epoch, error) {
	ref, err := s.ReferenceAt(now)
	if err != nil {
		return nil, err
	}
	if ref == nil || !ref.Contains(now) {
		return nil, nil
	}
	return ref, nil
}

// LastEndedAt returns the epoch with the greatest end time not after now,
// nil when no epoch has ended yet.
func (s *Service) LastEndedAt(now uint64) (*Epoch, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	var found *Epoch
	lo, hi := uint64(1), count
	for lo <= hi {
		mid := lo + (hi-lo)/2
		e, err := s.epochs.Get(key(mid))
		if err != nil {
			return nil, err
		}
		if e.EndTime <= now {
			found = e
			lo = mid + 1
		} else {
			if mid == 1 {
				break
			}
			hi = mid - 1
		}
	}
	return found, nil
}

// EntryEpochAt resolves the epoch a balance increase at now becomes eligible
// in. The second return reports a late entry: the increase landed on or after
// the checkpoint start of a running epoch, pushing eligibility to the next
// epoch.
func (s *Service) EntryEpochAt(now uint64) (uint64, bool, error) {
	ref, err := s.ReferenceAt(now)
	if err != nil {
		return 0, false, err
	}
	if ref != nil && ref.Contains(now) {
		if ref.InLateWindow(now) {
			return ref.ID + 1, true, nil
		}
		return ref.ID, false, nil
	}
	// in a gap or outside the schedule: eligible from the next epoch on
	var nextID uint64 = 1
	if ref != nil {
		nextID = ref.ID + 1
	}
	return nextID, false, nil
}

// DistributedThrough returns the highest epoch id settled by a distribution.
func (s *Service) DistributedThrough() (uint64, error) {
	return s.distributedThrough.Get()
}

// MarkDistributedThrough flips the distributed flag of every epoch up to and
// including target. Epochs between the cursor and the target were absorbed
// by the same distribution and get no report of their own.
func (s *Service) MarkDistributedThrough(target uint64) error {
	cursor, err := s.distributedThrough.Get()
	if err != nil {
		return err
	}
	if target <= cursor {
		return nil
	}
	for id := cursor + 1; id <= target; id++ {
		e, err := s.epochs.Get(key(id))
		if err != nil {
			return err
		}
		e.Distributed = true
		if err := s.epochs.Set(key(id), e); err != nil {
			return err
		}
	}
	s.distributedThrough.Set(target)
	return nil
}

// ReportCount returns the length of the report log.
func (s *Service) ReportCount() (uint64, error) {
	return s.reportCount.Get()
}

// GetReport returns the report at the given 1-based log index, nil when the
// index is out of range.
func (s *Service) GetReport(index uint64) (*Report, error) {
	count, err := s.reportCount.Get()
	if err != nil {
		return nil, err
	}
	if index == 0 || index > count {
		return nil, nil
	}
	return s.reports.Get(key(index))
}

// ReportByEpoch returns the report written for the given epoch, nil when the
// epoch has none.
func (s *Service) ReportByEpoch(epochID uint64) (*Report, error) {
	index, err := s.reportOfEpoch.Get(key(epochID))
	if err != nil {
		return nil, err
	}
	if index == 0 {
		return nil, nil
	}
	return s.reports.Get(key(index))
}

// AddReport appends a report to the log.
func (s *Service) AddReport(r *Report) error {
	count, err := s.reportCount.Get()
	if err != nil {
		return err
	}
	index := count + 1
	if err := s.reports.Set(key(index), r); err != nil {
		return err
	}
	if err := s.reportOfEpoch.Set(key(r.Epoch), index); err != nil {
		return err
	}
	s.reportCount.Set(index)
	return nil
}
