// Package alert decides whether a selected offer warrants a notification and
// how the persisted minimum changes. One decision per run; nothing here is
// durable beyond what the caller persists.
package alert

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tferreyra/farewatch/internal/amadeus"
	"github.com/tferreyra/farewatch/internal/state"
)

var oneHundred = decimal.NewFromInt(100)

// Thresholds are the configured alert triggers.
type Thresholds struct {
	// Target always alerts when the price is at or below it.
	Target decimal.Decimal
	// MinDropPct is the minimum percentage drop vs the stored minimum.
	MinDropPct decimal.Decimal
}

// Decision is the outcome of one evaluation. Reasons are independent and
// additive; several may co-occur.
type Decision struct {
	Notify  bool
	Reasons []string
}

func (d *Decision) add(reason string) {
	d.Notify = true
	d.Reasons = append(d.Reasons, reason)
}

// Evaluate compares the selected offer against the persisted prior state and
// the configured thresholds, and returns the decision together with the state
// to persist.
//
// A nil offer is the "no offers matched" outcome: no alert, and the returned
// state is the prior state untouched — the caller must skip persisting it.
// In every other case the caller persists the returned state, even on "no
// alert", so the on-disk record tracks the last successful check.
func Evaluate(offer *amadeus.Offer, prior state.PriceState, target, minDropPct decimal.Decimal, now time.Time) (Decision, state.PriceState) {
	if offer == nil {
		return Decision{}, prior
	}

	var d Decision
	next := prior
	price := offer.Total

	switch {
	case prior.MinPrice == nil:
		d.add("first price recorded (stored as minimum)")
		next = prior.RecordMinimum(price, now, offer.Route)

	case price.LessThan(*prior.MinPrice):
		drop := DropPercent(*prior.MinPrice, price)
		d.add(fmt.Sprintf("new historical minimum (↓%s%%)", drop))
		next = prior.RecordMinimum(price, now, offer.Route)

	default:
		// Price held or rose. The drop formula is still evaluated against
		// the unchanged stored minimum; the result is zero or negative here,
		// so a positive threshold keeps this branch a no-op.
		drop := DropPercent(*prior.MinPrice, price)
		if drop.GreaterThanOrEqual(minDropPct) {
			d.add(fmt.Sprintf("price drop of %s%% vs stored minimum", drop))
		}
	}

	if price.LessThanOrEqual(target) {
		d.add(fmt.Sprintf("at or below target price (%s %s)", target, offer.Currency))
	}

	return d, next
}

// DropPercent computes (prior − current) / prior × 100 rounded to 2 decimal
// places. Negative when current is above prior.
func DropPercent(prior, current decimal.Decimal) decimal.Decimal {
	return prior.Sub(current).Mul(oneHundred).Div(prior).Round(2)
}
