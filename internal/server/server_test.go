package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"decoquote/internal/config"
	"decoquote/internal/pricing"
	"decoquote/internal/quote"
	"decoquote/internal/storage"
	"decoquote/pkg/api"
	"decoquote/pkg/redis"

	"go.uber.org/zap"
)

type fakeCache struct {
	values map[string][]byte
	seq    int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string][]byte{}}
}

func (c *fakeCache) CacheJSON(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = data
	return nil
}

func (c *fakeCache) GetJSON(_ context.Context, key string, out any) error {
	data, ok := c.values[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, out)
}

func (c *fakeCache) NextSequence(_ context.Context, _ string, _ time.Duration) (int64, error) {
	c.seq++
	return c.seq, nil
}

type fakeAPI struct {
	bundle    *api.PricingBundle
	bundleErr error
	sessions  []api.QuoteSession
	items     []api.QuoteItem
}

func (a *fakeAPI) GetPricingBundle(_ context.Context, _, _ string) (*api.PricingBundle, error) {
	if a.bundleErr != nil {
		return nil, a.bundleErr
	}
	return a.bundle, nil
}

func (a *fakeAPI) CreateQuoteSession(_ context.Context, s api.QuoteSession) error {
	a.sessions = append(a.sessions, s)
	return nil
}

func (a *fakeAPI) CreateQuoteItem(_ context.Context, i api.QuoteItem) error {
	a.items = append(a.items, i)
	return nil
}

type fakeStore struct {
	sessions map[string]storage.QuoteSession
	lines    map[string][]storage.QuoteLine
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]storage.QuoteSession{},
		lines:    map[string][]storage.QuoteLine{},
	}
}

func (s *fakeStore) SaveQuote(_ context.Context, session storage.QuoteSession, lines []storage.QuoteLine) error {
	s.sessions[session.QuoteID] = session
	s.lines[session.QuoteID] = lines
	return nil
}

func (s *fakeStore) GetQuote(_ context.Context, quoteID string) (*storage.QuoteSession, []storage.QuoteLine, error) {
	session, ok := s.sessions[quoteID]
	if !ok {
		return nil, nil, storage.ErrQuoteNotFound
	}
	return &session, s.lines[quoteID], nil
}

func testBundle() *api.PricingBundle {
	return &api.PricingBundle{
		StyleNumber: "PC61",
		Tiers: []api.BundleTier{
			{TierLabel: "24-47", MinQuantity: 24, MaxQuantity: 47, MarginDenominator: 0.6},
			{TierLabel: "48-71", MinQuantity: 48, MaxQuantity: 71, MarginDenominator: 0.6},
			{TierLabel: "72+", MinQuantity: 72, MaxQuantity: 99999, MarginDenominator: 0.6},
		},
		EmbroideryCosts: []api.BundleCost{
			{TierLabel: "24-47", EmbroideryCost: 5.00},
			{TierLabel: "48-71", EmbroideryCost: 4.50},
			{TierLabel: "72+", EmbroideryCost: 4.00},
		},
		Sizes: []api.BundleSize{
			{Size: "S", Price: 9.99, SortOrder: 1},
			{Size: "M", Price: 9.99, SortOrder: 2},
		},
		Upcharges: map[string]float64{},
		Rules:     api.BundleRules{RoundingMethod: "HalfDollarUp"},
	}
}

func newTestServer(t *testing.T, client *fakeAPI, store *fakeStore) *Server {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.DefaultMethods())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc := quote.NewService(engine, client, newFakeCache(), store, nil, 30*24*time.Hour, zap.NewNop())
	return New(config.ServerConfig{Addr: ":0"}, svc, zap.NewNop())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, newFakeStore())
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestPrice_StaticMethod(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, newFakeStore())

	rec := doJSON(t, srv, http.MethodPost, "/api/quotes/price", priceRequest{
		Method:   "cap-embroidery",
		Quantity: 24,
		Options:  pricing.Options{StitchCount: 5000},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result pricing.QuoteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.UnitPrice != 23 {
		t.Errorf("unitPrice = %.2f, want 23.00", result.UnitPrice)
	}
	if result.PricingTier != "24-47" {
		t.Errorf("pricingTier = %q, want 24-47", result.PricingTier)
	}
}

func TestPrice_BundleMethod(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{bundle: testBundle()}, newFakeStore())

	rec := doJSON(t, srv, http.MethodPost, "/api/quotes/price", priceRequest{
		Method:      "embroidery",
		StyleNumber: "PC61",
		Quantity:    48,
		Size:        "S",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result pricing.QuoteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// 9.99/0.6 + 4.50 = 21.15, half-dollar up = 21.50.
	if result.UnitPrice != 21.50 {
		t.Errorf("unitPrice = %.2f, want 21.50", result.UnitPrice)
	}
}

func TestPrice_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{bundle: testBundle()}, newFakeStore())

	cases := []struct {
		name string
		req  priceRequest
		want int
	}{
		{"unknown method", priceRequest{Method: "laser-etch", Quantity: 24}, http.StatusBadRequest},
		{"zero quantity", priceRequest{Method: "embroidery", StyleNumber: "PC61", Quantity: 0, Size: "S"}, http.StatusBadRequest},
		{"unknown size", priceRequest{Method: "embroidery", StyleNumber: "PC61", Quantity: 24, Size: "5XLT"}, http.StatusBadRequest},
		{"missing style number", priceRequest{Method: "embroidery", Quantity: 24, Size: "S"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/quotes/price", tc.req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestPrice_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/price", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPrice_UpstreamDown(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{bundleErr: fmt.Errorf("proxy unreachable")}, newFakeStore())

	rec := doJSON(t, srv, http.MethodPost, "/api/quotes/price", priceRequest{
		Method:      "embroidery",
		StyleNumber: "PC61",
		Quantity:    24,
		Size:        "S",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "pricing unavailable for this selection" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, &fakeAPI{bundle: testBundle()}, store)

	rec := doJSON(t, srv, http.MethodPost, "/api/quotes", saveRequest{
		CustomerName:  "Jordan Reyes",
		CustomerEmail: "jordan@example.com",
		Lines: []saveLine{
			{
				priceRequest: priceRequest{
					Method:      "embroidery",
					StyleNumber: "PC61",
					Quantity:    48,
					Size:        "S",
				},
				ProductName: "Port & Company Tee",
				Color:       "Navy",
			},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp saveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.QuoteID == "" {
		t.Fatal("empty quoteID")
	}
	if want := 21.50 * 48; resp.Total != want {
		t.Errorf("total = %.2f, want %.2f", resp.Total, want)
	}

	get := doJSON(t, srv, http.MethodGet, "/api/quotes/"+resp.QuoteID, nil)
	if get.Code != http.StatusOK {
		t.Fatalf("GET status = %d, body %s", get.Code, get.Body.String())
	}
}

func TestSave_NoLines(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, newFakeStore())
	rec := doJSON(t, srv, http.MethodPost, "/api/quotes", saveRequest{CustomerName: "Jordan Reyes"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGet_NotFound(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, newFakeStore())
	rec := doJSON(t, srv, http.MethodGet, "/api/quotes/EMB0101-99", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
