package alert_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tferreyra/farewatch/internal/alert"
	"github.com/tferreyra/farewatch/internal/amadeus"
	"github.com/tferreyra/farewatch/internal/state"
)

func TestMessage_RoundTrip(t *testing.T) {
	offer := &amadeus.Offer{
		Total:     decimal.RequireFromString("612.3"),
		Priced:    true,
		Currency:  "USD",
		Nights:    14,
		HasNights: true,
		Carriers:  []string{"IB", "UX"},
		Route:     "EZE→MAD",
	}
	st := state.PriceState{}.RecordMinimum(offer.Total, now, offer.Route)
	d := alert.Decision{Notify: true, Reasons: []string{"new historical minimum (↓5.8%)", "at or below target price (650 USD)"}}

	msg := alert.Message(offer, st, d)

	for _, want := range []string{
		"<b>Alert EZE→MAD</b>",
		"Airlines: IB, UX",
		"Nights at destination: 14",
		"<b>612.30 USD</b>",
		"Historical minimum: 612.30 USD",
		"new historical minimum (↓5.8%) | at or below target price (650 USD)",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestMessage_OneWayOmitsNights(t *testing.T) {
	offer := &amadeus.Offer{
		Total:    decimal.RequireFromString("480"),
		Priced:   true,
		Currency: "USD",
		Route:    "EZE→MAD",
	}
	st := state.PriceState{}.RecordMinimum(offer.Total, now, offer.Route)

	msg := alert.Message(offer, st, alert.Decision{Notify: true, Reasons: []string{"first price recorded (stored as minimum)"}})

	if strings.Contains(msg, "Nights at destination") {
		t.Error("one-way message must not mention nights")
	}
	if !strings.Contains(msg, "Airlines: N/A") {
		t.Errorf("expected N/A airlines, got:\n%s", msg)
	}
}
