package amadeus_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tferreyra/farewatch/internal/amadeus"
)

// fakeAPI serves the OAuth and search endpoints and counts what it sees.
type fakeAPI struct {
	tokenRequests  int
	searchRequests int
	tokensIssued   []string
	// rejectTokens holds bearer tokens that get a 401.
	rejectTokens map[string]bool
	searchBody   string
	searchStatus int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		f.tokenRequests++
		if r.FormValue("grant_type") != "client_credentials" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		tok := fmt.Sprintf("token-%d", f.tokenRequests)
		f.tokensIssued = append(f.tokensIssued, tok)
		json.NewEncoder(w).Encode(map[string]any{"access_token": tok, "expires_in": 1799})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		f.searchRequests++
		bearer := r.Header.Get("Authorization")
		if f.rejectTokens[bearer] {
			http.Error(w, `{"errors":[{"code":38192}]}`, http.StatusUnauthorized)
			return
		}
		status := f.searchStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		fmt.Fprint(w, f.searchBody)
	})
	return mux
}

func newTestClient(t *testing.T, srv *httptest.Server) *amadeus.Client {
	t.Helper()
	return amadeus.NewClient(amadeus.Config{
		OAuthURL:          srv.URL + "/oauth",
		SearchURL:         srv.URL + "/search",
		ClientID:          "id",
		ClientSecret:      "secret",
		TokenFile:         filepath.Join(t.TempDir(), "token.json"),
		RequestsPerMinute: 6000,
	}, slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func sampleQuery() amadeus.Query {
	return amadeus.Query{
		Origin:        "EZE",
		Destination:   "MAD",
		DepartureDate: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		Adults:        1,
		Currency:      "USD",
		MaxResults:    20,
	}
}

const offerJSON = `{"data":[
	{"price":{"total":"612.34","currency":"USD"},
	 "itineraries":[{"segments":[{"carrierCode":"IB"},{"carrierCode":"UX"}]},
	                {"segments":[{"carrierCode":"IB"}]}]},
	{"price":{"total":"not-a-number"},"itineraries":[{}]}
]}`

func TestClient_SearchOffers_Normalization(t *testing.T) {
	api := &fakeAPI{searchBody: offerJSON}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	offers, err := newTestClient(t, srv).SearchOffers(context.Background(), sampleQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}

	first := offers[0]
	if !first.Priced || first.Total.String() != "612.34" {
		t.Errorf("expected priced 612.34, got %+v", first)
	}
	if first.Currency != "USD" {
		t.Errorf("expected USD, got %q", first.Currency)
	}
	if len(first.Carriers) != 2 || first.Carriers[0] != "IB" || first.Carriers[1] != "UX" {
		t.Errorf("expected deduped sorted carriers [IB UX], got %v", first.Carriers)
	}

	// Malformed price and segments: unpriced sentinel, empty carrier set.
	second := offers[1]
	if second.Priced {
		t.Error("malformed price must yield an unpriced offer")
	}
	if len(second.Carriers) != 0 {
		t.Errorf("expected empty carrier set, got %v", second.Carriers)
	}
	if second.Currency != "USD" {
		t.Errorf("expected fallback currency USD, got %q", second.Currency)
	}
	if second.CarrierSummary() != "N/A" {
		t.Errorf("expected N/A summary, got %q", second.CarrierSummary())
	}
}

func TestClient_TokenCachedAcrossSearches(t *testing.T) {
	api := &fakeAPI{searchBody: `{"data":[]}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.SearchOffers(ctx, sampleQuery()); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}

	if api.tokenRequests != 1 {
		t.Errorf("expected 1 token request across 3 searches, got %d", api.tokenRequests)
	}
	if api.searchRequests != 3 {
		t.Errorf("expected 3 search requests, got %d", api.searchRequests)
	}
}

func TestClient_StaleTokenRetriedExactlyOnce(t *testing.T) {
	api := &fakeAPI{
		searchBody:   `{"data":[]}`,
		rejectTokens: map[string]bool{"Bearer token-1": true},
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	offers, err := newTestClient(t, srv).SearchOffers(context.Background(), sampleQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offers == nil {
		t.Fatal("expected an empty offer list, not nil")
	}

	if api.tokenRequests != 2 {
		t.Errorf("expected a single token refresh (2 token requests), got %d", api.tokenRequests)
	}
	if api.searchRequests != 2 {
		t.Errorf("expected the request retried exactly once, got %d search requests", api.searchRequests)
	}
}

func TestClient_SecondUnauthorizedIsAuthError(t *testing.T) {
	api := &fakeAPI{
		searchBody: `{"data":[]}`,
		rejectTokens: map[string]bool{
			"Bearer token-1": true,
			"Bearer token-2": true,
		},
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	_, err := newTestClient(t, srv).SearchOffers(context.Background(), sampleQuery())
	var authErr *amadeus.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError after failed retry, got %v", err)
	}

	if api.tokenRequests != 2 {
		t.Errorf("expected exactly one refresh, got %d token requests", api.tokenRequests)
	}
	if api.searchRequests != 2 {
		t.Errorf("expected exactly one retry, got %d search requests", api.searchRequests)
	}
}

func TestClient_ServerErrorIsFatal(t *testing.T) {
	api := &fakeAPI{searchStatus: http.StatusInternalServerError, searchBody: `{"errors":[]}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	_, err := newTestClient(t, srv).SearchOffers(context.Background(), sampleQuery())
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if api.searchRequests != 1 {
		t.Errorf("non-401 failures must not be retried, got %d requests", api.searchRequests)
	}
}

func TestClient_EmptyDataIsNoOffers(t *testing.T) {
	api := &fakeAPI{searchBody: `{"data":[]}`}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	offers, err := newTestClient(t, srv).SearchOffers(context.Background(), sampleQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 0 {
		t.Errorf("expected no offers, got %d", len(offers))
	}
}
