// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists the engine audit trail in sqlite: one row per
// distribution, claim, breakage routing, exclusion flip or epoch
// configuration, queryable by kind, account and time range.
package eventdb

import (
	"database/sql"
	"math/big"

	"github.com/pkg/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

// Kind names the engine operation an event records.
type Kind string

const (
	KindDistribution Kind = "distribution"
	KindClaim        Kind = "claim"
	KindBreakage     Kind = "breakage"
	KindExclusion    Kind = "exclusion"
	KindEpoch        Kind = "epoch"
)

// Event is one audit record. Amount carries tokens, Units carries accrual
// units; either may be zero when the kind has no use for it.
type Event struct {
	Seq        uint64        `json:"seq"`
	Kind       Kind          `json:"kind"`
	Epoch      uint64        `json:"epoch"`
	Account    *buck.Address `json:"account"`
	Amount     *big.Int      `json:"amount"`
	Units      *big.Int      `json:"units"`
	OccurredAt uint64        `json:"occurredAt"`
}

type RangeType string

const (
	Seq  RangeType = "Seq"
	Time RangeType = "Time"
)

type OrderType string

const (
	ASC  OrderType = "ASC"
	DESC OrderType = "DESC"
)

// Range bounds a filter by sequence number or by occurrence time.
type Range struct {
	Unit RangeType `json:"unit"`
	From uint64    `json:"from"`
	To   uint64    `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects audit records. Zero fields do not constrain.
type Filter struct {
	Kind    *Kind         `json:"kind"`
	Account *buck.Address `json:"account"`
	Epoch   *uint64       `json:"epoch"`
	Order   OrderType     `json:"order"` // default asc
	Range   *Range
	Options *Options
}

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	epoch INTEGER NOT NULL,
	account BLOB,
	amount TEXT NOT NULL,
	units TEXT NOT NULL,
	occurredAt INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS event_kind ON event(kind);
CREATE INDEX IF NOT EXISTS event_account ON event(account);
CREATE INDEX IF NOT EXISTS event_time ON event(occurredAt);`

// EventDB is the sqlite-backed audit log.
type EventDB struct {
	path string
	db   *sql.DB
}

// New opens or creates the audit log at path.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{
		path: path,
		db:   db,
	}, nil
}

// NewMem creates an in-memory audit log.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Insert appends events in one transaction. Seq is assigned by the store.
func (db *EventDB) Insert(events ...*Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, event := range events {
		if _, err = tx.Exec(
			"INSERT INTO event(kind, epoch, account, amount, units, occurredAt) VALUES (?, ?, ?, ?, ?, ?);",
			string(event.Kind),
			event.Epoch,
			accountValue(event.Account),
			bigValue(event.Amount),
			bigValue(event.Units),
			event.OccurredAt,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Filter returns audit records matching the filter, all of them when nil.
func (db *EventDB) Filter(filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query("SELECT * FROM event ORDER BY seq ASC")
	}
	var args []interface{}
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		condition := "seq"
		if filter.Range.Unit == Time {
			condition = "occurredAt"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		stmt += " AND kind = ? "
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if filter.Epoch != nil {
		args = append(args, *filter.Epoch)
		stmt += " AND epoch = ? "
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(stmt, args...)
}

func (db *EventDB) query(stmt string, args ...interface{}) ([]*Event, error) {
	rows, err := db.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			seq        uint64
			kind       string
			epoch      uint64
			account    []byte
			amount     string
			units      string
			occurredAt uint64
		)
		if err := rows.Scan(
			&seq,
			&kind,
			&epoch,
			&account,
			&amount,
			&units,
			&occurredAt,
		); err != nil {
			return nil, err
		}
		event := &Event{
			Seq:        seq,
			Kind:       Kind(kind),
			Epoch:      epoch,
			OccurredAt: occurredAt,
		}
		if len(account) > 0 {
			addr := buck.BytesToAddress(account)
			event.Account = &addr
		}
		if event.Amount, err = parseBig(amount); err != nil {
			return nil, err
		}
		if event.Units, err = parseBig(units); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Path returns the sqlite file path.
func (db *EventDB) Path() string {
	return db.path
}

// Close closes the underlying store.
func (db *EventDB) Close() {
	db.db.Close()
}

func accountValue(addr *buck.Address) []byte {
	if addr == nil {
		return nil
	}
	return addr.Bytes()
}

// bigValue stores amounts as decimal strings, which sort wrong but compare
// exact; range queries go through seq and occurredAt only.
func bigValue(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("malformed amount %q", s)
	}
	return x, nil
}
