// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scheduler drives distributions on a timer. Each tick it checks
// whether an epoch ended that the engine has not settled yet, asks the
// coupon source for that epoch's coupon and fires a distribution. Skipped
// epochs need no special casing here since the engine sweeps them into the
// next settlement on its own.
package scheduler

import (
	"context"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/co"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/node"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
)

var logger = log.WithContext("pkg", "scheduler")

// CouponSource yields the coupon charged for an ended epoch.
type CouponSource interface {
	Coupon(epoch *epochs.Epoch) (*big.Int, error)
}

// CouponFunc adapts a function to a CouponSource.
type CouponFunc func(epoch *epochs.Epoch) (*big.Int, error)

func (f CouponFunc) Coupon(epoch *epochs.Epoch) (*big.Int, error) {
	return f(epoch)
}

// FixedCoupon returns a source yielding the same coupon for every epoch.
func FixedCoupon(amount *big.Int) CouponSource {
	fixed := new(big.Int).Set(amount)
	return CouponFunc(func(*epochs.Epoch) (*big.Int, error) {
		return new(big.Int).Set(fixed), nil
	})
}

// Options configure a scheduler.
type Options struct {
	Node        *node.Node
	Distributor buck.Address
	Coupon      CouponSource
	Interval    time.Duration

	// Clock drives the tick loop; defaults to the wall clock.
	Clock clockwork.Clock
}

func (opts *Options) validate() error {
	if opts.Node == nil {
		return errors.New("node is required")
	}
	if opts.Distributor.IsZero() {
		return errors.New("distributor is required")
	}
	if opts.Coupon == nil {
		return errors.New("coupon source is required")
	}
	if opts.Interval <= 0 {
		return errors.New("interval must be greater than 0")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Scheduler fires distributions for ended epochs.
type Scheduler struct {
	opts Options
	goes co.Goes
}

// New builds a scheduler; Start begins the loop.
func New(opts Options) (*Scheduler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{opts: opts}, nil
}

// Start runs the tick loop until ctx is done. An immediate tick precedes the
// timer so a restart catches up without waiting a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.goes.Go(func() {
		logger.Info("starting distribution loop", "interval", s.opts.Interval)

		s.tick()

		ticker := s.opts.Clock.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("distribution loop done")
				return
			case <-ticker.Chan():
				s.tick()
			}
		}
	})
}

// Wait blocks until the loop exits.
func (s *Scheduler) Wait() {
	s.goes.Wait()
}

func (s *Scheduler) tick() {
	fired, err := s.distributePending()
	if err != nil {
		logger.Warn("distribution attempt failed", "err", err)
		return
	}
	if fired {
		metricsDistributionTriggers().Add(1)
	}
}

// distributePending fires one distribution when an ended epoch awaits
// settlement, and reports whether it did.
func (s *Scheduler) distributePending() (bool, error) {
	nd := s.opts.Node

	ref, err := nd.ReferenceEpoch()
	if err != nil {
		return false, err
	}
	if ref == nil {
		return false, nil
	}
	ended := ref.ID
	if nd.Now() < ref.EndTime {
		ended--
	}

	through, err := nd.DistributedThrough()
	if err != nil {
		return false, err
	}
	if ended <= through {
		return false, nil
	}

	target, err := nd.Epoch(ended)
	if err != nil {
		return false, err
	}
	coupon, err := s.opts.Coupon.Coupon(target)
	if err != nil {
		return false, errors.Wrapf(err, "coupon for epoch %d", ended)
	}

	report, err := nd.Distribute(s.opts.Distributor, coupon)
	if err != nil {
		return false, errors.Wrapf(err, "distribute epoch %d", ended)
	}
	logger.Info("distributed on schedule",
		"epoch", report.Epoch,
		"coupon", coupon,
		"tokensAllocated", report.TokensAllocated,
	)
	return true, nil
}
