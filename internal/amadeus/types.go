package amadeus

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// --------------------------------------------------------------------------
// Wire types — Flight Offers Search response shapes
// --------------------------------------------------------------------------

// wireOffer is the subset of an Amadeus flight offer the watcher uses.
type wireOffer struct {
	Price struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Segments []struct {
			CarrierCode string `json:"carrierCode"`
		} `json:"segments"`
	} `json:"itineraries"`
}

// --------------------------------------------------------------------------
// Offer — normalized output
// --------------------------------------------------------------------------

// Offer is a normalized flight offer candidate.
//
// Priced is false when the wire price was missing, malformed, or negative.
// Unpriced offers order after every priced offer, so they can never win a
// minimum-price reduction.
type Offer struct {
	Total         decimal.Decimal
	Priced        bool
	Currency      string
	DepartureDate time.Time
	Nights        int
	HasNights     bool
	Carriers      []string
	Route         string
}

// CarrierSummary joins the carrier codes for display, "N/A" when none could
// be derived.
func (o Offer) CarrierSummary() string {
	if len(o.Carriers) == 0 {
		return "N/A"
	}
	return strings.Join(o.Carriers, ", ")
}

// normalizeOffer converts a wire offer into the domain shape. Malformed
// segment data yields an empty carrier set, not an error.
func normalizeOffer(w wireOffer, departure time.Time, fallbackCurrency string) Offer {
	o := Offer{
		Currency:      w.Price.Currency,
		DepartureDate: departure,
	}
	if o.Currency == "" {
		o.Currency = fallbackCurrency
	}

	if total, err := decimal.NewFromString(w.Price.Total); err == nil && !total.IsNegative() {
		o.Total = total
		o.Priced = true
	}

	seen := make(map[string]struct{})
	for _, it := range w.Itineraries {
		for _, seg := range it.Segments {
			if seg.CarrierCode == "" {
				continue
			}
			if _, dup := seen[seg.CarrierCode]; dup {
				continue
			}
			seen[seg.CarrierCode] = struct{}{}
			o.Carriers = append(o.Carriers, seg.CarrierCode)
		}
	}
	sort.Strings(o.Carriers)
	return o
}
