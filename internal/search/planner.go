package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tferreyra/farewatch/internal/amadeus"
)

// maxResultsHint caps response size per request. A hint to the API, not a
// correctness requirement.
const maxResultsHint = 20

// Searcher issues one flight-offers request. Satisfied by *amadeus.Client.
type Searcher interface {
	SearchOffers(ctx context.Context, q amadeus.Query) ([]amadeus.Offer, error)
}

// Criteria is the immutable per-run search description.
type Criteria struct {
	Origin      string
	Destination string
	WindowStart time.Time
	WindowEnd   time.Time
	OneWay      bool
	MinNights   int // round-trip only
	MaxNights   int // round-trip only
	Adults      int
	Currency    string
	MaxDates    int
}

// Route returns the "ORIG→DEST" summary string.
func (c Criteria) Route() string {
	return c.Origin + "→" + c.Destination
}

// Planner enumerates the date window and collects offer candidates.
// All requests run sequentially; a single request failure aborts the run.
type Planner struct {
	client Searcher
	logger *slog.Logger
}

func NewPlanner(client Searcher, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{client: client, logger: logger}
}

// FindCheapest scans the date window and returns the cheapest offer found,
// tagged with the route summary and, for round trips, the winning nights
// count. A nil offer with a nil error means no offers matched anywhere in
// the window.
func (p *Planner) FindCheapest(ctx context.Context, crit Criteria) (*amadeus.Offer, error) {
	dates, err := DateRange(crit.WindowStart, crit.WindowEnd, crit.MaxDates)
	if err != nil {
		return nil, err
	}

	var candidates []amadeus.Offer
	scanned := 0
	for date := range dates {
		scanned++
		found, err := p.collectDate(ctx, crit, date)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("date scanned",
			"departure", date.Format("2006-01-02"), "candidates", len(found))
		candidates = append(candidates, found...)
	}

	best := Cheapest(candidates)
	if best != nil {
		best.Route = crit.Route()
	}
	p.logger.Info("window scan complete",
		"route", crit.Route(), "dates_scanned", scanned,
		"candidates", len(candidates), "found", best != nil)
	return best, nil
}

// collectDate issues the request(s) for one departure date: a single request
// for one-way, or one request per nights count for round trips, with every
// offer tagged by the nights used so it survives into the final comparison.
func (p *Planner) collectDate(ctx context.Context, crit Criteria, date time.Time) ([]amadeus.Offer, error) {
	base := amadeus.Query{
		Origin:        crit.Origin,
		Destination:   crit.Destination,
		DepartureDate: date,
		Adults:        crit.Adults,
		Currency:      crit.Currency,
		MaxResults:    maxResultsHint,
	}

	if crit.OneWay {
		offers, err := p.client.SearchOffers(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", date.Format("2006-01-02"), err)
		}
		return offers, nil
	}

	var collected []amadeus.Offer
	for nights := crit.MinNights; nights <= crit.MaxNights; nights++ {
		q := base
		q.ReturnDate = date.AddDate(0, 0, nights)
		offers, err := p.client.SearchOffers(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("search %s (+%d nights): %w",
				date.Format("2006-01-02"), nights, err)
		}
		for i := range offers {
			offers[i].Nights = nights
			offers[i].HasNights = true
		}
		collected = append(collected, offers...)
	}
	return collected, nil
}

// Cheapest reduces a candidate set to the lowest-priced offer. Ties keep the
// first-seen candidate, which is deterministic because enumeration runs dates
// ascending and nights ascending within a date. Unpriced offers never win.
// Returns nil when no candidate carries a usable price.
func Cheapest(offers []amadeus.Offer) *amadeus.Offer {
	var best *amadeus.Offer
	for i := range offers {
		o := offers[i]
		if !o.Priced {
			continue
		}
		if best == nil || o.Total.LessThan(best.Total) {
			best = &offers[i]
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
