// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/eventdb"
)

// Range bounds a filter by sequence number or by occurrence time.
type Range struct {
	Unit eventdb.RangeType `json:"unit"`
	From uint64            `json:"from"`
	To   uint64            `json:"to"`
}

// Options page through a result set.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EventFilter selects audit records. Absent fields do not constrain.
type EventFilter struct {
	Kind    *eventdb.Kind     `json:"kind"`
	Account *buck.Address     `json:"account"`
	Epoch   *uint64           `json:"epoch"`
	Order   eventdb.OrderType `json:"order"`
	Range   *Range            `json:"range"`
	Options *Options          `json:"options"`
}

func validateEventFilter(filter *EventFilter) error {
	if filter.Kind != nil {
		switch *filter.Kind {
		case eventdb.KindDistribution, eventdb.KindClaim, eventdb.KindBreakage,
			eventdb.KindExclusion, eventdb.KindEpoch:
		default:
			return errors.Errorf("kind: unknown value %q", *filter.Kind)
		}
	}
	switch filter.Order {
	case "", eventdb.ASC, eventdb.DESC:
	default:
		return errors.Errorf("order: expected %q or %q", eventdb.ASC, eventdb.DESC)
	}
	if filter.Range != nil {
		switch filter.Range.Unit {
		case "", eventdb.Seq, eventdb.Time:
		default:
			return errors.Errorf("range.unit: expected %q or %q", eventdb.Seq, eventdb.Time)
		}
	}
	return nil
}

func convertEventFilter(filter *EventFilter) *eventdb.Filter {
	converted := &eventdb.Filter{
		Kind:    filter.Kind,
		Account: filter.Account,
		Epoch:   filter.Epoch,
		Order:   filter.Order,
	}
	if filter.Range != nil {
		converted.Range = &eventdb.Range{
			Unit: filter.Range.Unit,
			From: filter.Range.From,
			To:   filter.Range.To,
		}
	}
	if filter.Options != nil {
		converted.Options = &eventdb.Options{
			Offset: filter.Options.Offset,
			Limit:  filter.Options.Limit,
		}
	}
	return converted
}
