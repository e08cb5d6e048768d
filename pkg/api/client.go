// Package api is the client for the Caspio pricing proxy: pricing bundles in,
// quote sessions and items out.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// PricingBundle is the raw per-style pricing payload:
// GET /api/pricing-bundle?method=<M>&styleNumber=<S>.
type PricingBundle struct {
	StyleNumber     string             `json:"styleNumber"`
	Tiers           []BundleTier       `json:"tiersR"`
	EmbroideryCosts []BundleCost       `json:"allEmbroideryCostsR"`
	Sizes           []BundleSize       `json:"sizes"`
	Upcharges       map[string]float64 `json:"sellingPriceDisplayAddOns"`
	Rules           BundleRules        `json:"rulesR"`
}

type BundleTier struct {
	TierLabel         string  `json:"TierLabel"`
	MinQuantity       int     `json:"MinQuantity"`
	MaxQuantity       int     `json:"MaxQuantity"`
	MarginDenominator float64 `json:"MarginDenominator"`
}

type BundleCost struct {
	TierLabel      string  `json:"TierLabel"`
	EmbroideryCost float64 `json:"EmbroideryCost"`
}

type BundleSize struct {
	Size      string  `json:"size"`
	Price     float64 `json:"price"`
	SortOrder int     `json:"sortOrder"`
}

type BundleRules struct {
	RoundingMethod string `json:"RoundingMethod"`
}

// QuoteSession is the POST /api/quote_sessions payload.
type QuoteSession struct {
	QuoteID        string  `json:"QuoteID"`
	SessionID      string  `json:"SessionID"`
	CustomerEmail  string  `json:"CustomerEmail"`
	CustomerName   string  `json:"CustomerName"`
	CompanyName    string  `json:"CompanyName"`
	Phone          string  `json:"Phone"`
	TotalQuantity  int     `json:"TotalQuantity"`
	SubtotalAmount float64 `json:"SubtotalAmount"`
	LTMFeeTotal    float64 `json:"LTMFeeTotal"`
	TotalAmount    float64 `json:"TotalAmount"`
	Status         string  `json:"Status"`
	ExpiresAt      string  `json:"ExpiresAt"`
	Notes          string  `json:"Notes"`
}

// QuoteItem is the POST /api/quote_items payload.
type QuoteItem struct {
	QuoteID           string  `json:"QuoteID"`
	LineNumber        int     `json:"LineNumber"`
	StyleNumber       string  `json:"StyleNumber"`
	ProductName       string  `json:"ProductName"`
	Color             string  `json:"Color"`
	EmbellishmentType string  `json:"EmbellishmentType"`
	PrintLocation     string  `json:"PrintLocation"`
	Quantity          int     `json:"Quantity"`
	HasLTM            string  `json:"HasLTM"`
	BaseUnitPrice     float64 `json:"BaseUnitPrice"`
	LTMPerUnit        float64 `json:"LTMPerUnit"`
	FinalUnitPrice    float64 `json:"FinalUnitPrice"`
	LineTotal         float64 `json:"LineTotal"`
	SizeBreakdown     string  `json:"SizeBreakdown"`
	PricingTier       string  `json:"PricingTier"`
	AddedAt           string  `json:"AddedAt"`
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetPricingBundle fetches the tier/cost/size payload for a style. Reads are
// retried with exponential backoff; the proxy drops requests under load.
func (c *Client) GetPricingBundle(ctx context.Context, method, styleNumber string) (*PricingBundle, error) {
	url := fmt.Sprintf("%s/api/pricing-bundle?method=%s&styleNumber=%s", c.baseURL, method, styleNumber)

	var bundle PricingBundle
	retryPolicy := backoff.WithContext(newRetryPolicy(), ctx)
	err := backoff.RetryNotify(
		func() error {
			return c.getJSON(ctx, url, &bundle)
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			c.logger.Warn("Pricing bundle fetch failed, retrying...",
				zap.String("style", styleNumber),
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("get pricing bundle %s/%s: %w", method, styleNumber, err)
	}

	if len(bundle.Tiers) == 0 || len(bundle.Sizes) == 0 {
		return nil, fmt.Errorf("pricing bundle %s/%s missing required fields", method, styleNumber)
	}
	return &bundle, nil
}

// CreateQuoteSession posts a quote session. Not retried: the remote assigns
// the row on first receipt.
func (c *Client) CreateQuoteSession(ctx context.Context, session QuoteSession) error {
	return c.postJSON(ctx, fmt.Sprintf("%s/api/quote_sessions", c.baseURL), session)
}

// CreateQuoteItem posts one quote line item.
func (c *Client) CreateQuoteItem(ctx context.Context, item QuoteItem) error {
	return c.postJSON(ctx, fmt.Sprintf("%s/api/quote_items", c.baseURL), item)
}

// GetQuoteSessions fetches saved sessions for a quote ID.
func (c *Client) GetQuoteSessions(ctx context.Context, quoteID string) ([]QuoteSession, error) {
	var result struct {
		Data []QuoteSession `json:"data"`
	}
	url := fmt.Sprintf("%s/api/quote_sessions?quoteID=%s", c.baseURL, quoteID)
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("get quote sessions %s: %w", quoteID, err)
	}
	return result.Data, nil
}

// GetQuoteItems fetches saved line items for a quote ID.
func (c *Client) GetQuoteItems(ctx context.Context, quoteID string) ([]QuoteItem, error) {
	var result struct {
		Data []QuoteItem `json:"data"`
	}
	url := fmt.Sprintf("%s/api/quote_items?quoteID=%s", c.baseURL, quoteID)
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("get quote items %s: %w", quoteID, err)
	}
	return result.Data, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

func newRetryPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	policy.MaxInterval = 5 * time.Second
	return policy
}
