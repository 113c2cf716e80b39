// Package state persists the historical minimum price across runs.
//
// Two backends exist: a JSON file (default, assumes a single process
// instance) and Postgres, which holds an advisory lock for the whole
// read-modify-write cycle so concurrent instances serialize.
package state

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceState is the durable record of the cheapest fare ever observed for a
// route. The zero value means no price has been recorded yet.
type PriceState struct {
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MinWhen  time.Time        `json:"min_when,omitzero"`
	MinRoute string           `json:"min_route,omitempty"`
	// UpdatedBy is the run id of the last writer, for auditing.
	UpdatedBy string `json:"updated_by,omitempty"`
}

// RecordMinimum returns a copy of the state with a new minimum recorded.
func (s PriceState) RecordMinimum(price decimal.Decimal, when time.Time, route string) PriceState {
	next := s
	next.MinPrice = &price
	next.MinWhen = when
	next.MinRoute = route
	return next
}

// Store persists PriceState across runs. Load on a store that has never been
// written returns the zero state, not an error.
type Store interface {
	Load(ctx context.Context) (PriceState, error)
	Save(ctx context.Context, st PriceState) error
	Reset(ctx context.Context) error
	Close()
}
