// Package quote orchestrates quoting: it feeds the pricing engine with
// per-style price tables from the pricing proxy (through a short-TTL cache),
// assembles saved quotes, and hands them to local and remote persistence.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"decoquote/internal/pricing"
	"decoquote/internal/storage"
	"decoquote/pkg/api"
	"decoquote/pkg/redis"

	"go.uber.org/zap"
)

// PricingAPI is the slice of the proxy client the service uses.
type PricingAPI interface {
	GetPricingBundle(ctx context.Context, method, styleNumber string) (*api.PricingBundle, error)
	CreateQuoteSession(ctx context.Context, session api.QuoteSession) error
	CreateQuoteItem(ctx context.Context, item api.QuoteItem) error
}

// Cache is the bundle cache and sequence counter (redis in production).
type Cache interface {
	CacheJSON(ctx context.Context, key string, value any) error
	GetJSON(ctx context.Context, key string, out any) error
	NextSequence(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// Store is the local quote copy.
type Store interface {
	SaveQuote(ctx context.Context, session storage.QuoteSession, lines []storage.QuoteLine) error
	GetQuote(ctx context.Context, quoteID string) (*storage.QuoteSession, []storage.QuoteLine, error)
}

// Notifier tells staff about a saved quote. Implementations must be
// best-effort; the service never fails a save over a notification.
type Notifier interface {
	NotifyNewQuote(ctx context.Context, session storage.QuoteSession, lines []storage.QuoteLine)
}

type Service struct {
	engine   *pricing.Engine
	client   PricingAPI
	cache    Cache
	store    Store
	notifier Notifier
	logger   *zap.Logger
	validity time.Duration
}

func NewService(engine *pricing.Engine, client PricingAPI, cache Cache, store Store, notifier Notifier, validity time.Duration, logger *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		client:   client,
		cache:    cache,
		store:    store,
		notifier: notifier,
		logger:   logger,
		validity: validity,
	}
}

// LineInput is one product line to price.
type LineInput struct {
	Request     pricing.QuoteRequest
	ProductName string
	Color       string
}

// SaveRequest is a full quote to price and persist.
type SaveRequest struct {
	CustomerName  string
	CustomerEmail string
	CompanyName   string
	Phone         string
	Notes         string
	Lines         []LineInput
}

// SavedQuote is the persisted outcome.
type SavedQuote struct {
	QuoteID   string
	SessionID string
	Session   storage.QuoteSession
	Lines     []storage.QuoteLine
	Results   []*pricing.QuoteResult
}

// PriceLine prices a single request, fetching the style's price table when
// the method needs one. Pure recomputation: safe to call on every input
// change.
func (s *Service) PriceLine(ctx context.Context, req pricing.QuoteRequest) (*pricing.QuoteResult, error) {
	table, err := s.tableFor(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.engine.Quote(req, table)
}

// tableFor returns the per-style table for bundle-priced methods and nil for
// methods the engine prices from static config.
func (s *Service) tableFor(ctx context.Context, req pricing.QuoteRequest) (*pricing.PriceTable, error) {
	cfg, err := s.engine.Config(req.Method)
	if err != nil {
		return nil, err
	}
	if len(cfg.StitchProfiles) > 0 || len(cfg.StaticPrices) > 0 {
		return nil, nil
	}
	if req.StyleNumber == "" {
		return nil, fmt.Errorf("%w: method %s requires a style number", pricing.ErrMalformedPriceTable, req.Method)
	}

	bundle, err := s.fetchBundle(ctx, cfg.IDPrefix, req.StyleNumber)
	if err != nil {
		return nil, err
	}
	return pricing.BuildGarmentTable(bundleInput(req.Method, bundle))
}

// fetchBundle serves the raw bundle from cache when fresh, the proxy
// otherwise. A failed fetch is an explicit error; there is no $0 fallback
// price to hide behind.
func (s *Service) fetchBundle(ctx context.Context, methodCode, styleNumber string) (*api.PricingBundle, error) {
	key := fmt.Sprintf("pricing_bundle:%s:%s", methodCode, styleNumber)

	var cached api.PricingBundle
	err := s.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		s.logger.Warn("Bundle cache read failed",
			zap.String("key", key),
			zap.Error(err))
	}

	bundle, err := s.client.GetPricingBundle(ctx, methodCode, styleNumber)
	if err != nil {
		return nil, err
	}

	if err := s.cache.CacheJSON(ctx, key, bundle); err != nil {
		s.logger.Warn("Bundle cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}
	return bundle, nil
}

func bundleInput(method pricing.Method, bundle *api.PricingBundle) pricing.BundleInput {
	in := pricing.BundleInput{
		Method:         method,
		StyleNumber:    bundle.StyleNumber,
		Upcharges:      bundle.Upcharges,
		RoundingMethod: bundle.Rules.RoundingMethod,
	}
	for _, t := range bundle.Tiers {
		in.Tiers = append(in.Tiers, pricing.TierRow{
			TierLabel:         t.TierLabel,
			MinQuantity:       t.MinQuantity,
			MaxQuantity:       t.MaxQuantity,
			MarginDenominator: t.MarginDenominator,
		})
	}
	for _, c := range bundle.EmbroideryCosts {
		in.DecorationCosts = append(in.DecorationCosts, pricing.CostRow{
			TierLabel: c.TierLabel,
			Cost:      c.EmbroideryCost,
		})
	}
	for _, z := range bundle.Sizes {
		in.Sizes = append(in.Sizes, pricing.SizeRow{
			Size:      z.Size,
			Price:     z.Price,
			SortOrder: z.SortOrder,
		})
	}
	return in
}

// Save prices every line, persists the quote locally and to the remote quote
// API, and notifies staff. Any pricing or persistence failure aborts the
// save.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*SavedQuote, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("quote has no lines")
	}

	firstCfg, err := s.engine.Config(req.Lines[0].Request.Method)
	if err != nil {
		return nil, err
	}

	quoteID, err := s.GenerateQuoteID(ctx, firstCfg.IDPrefix)
	if err != nil {
		return nil, err
	}
	sessionID := newSessionID(firstCfg.IDPrefix)

	now := time.Now().UTC()
	saved := &SavedQuote{QuoteID: quoteID, SessionID: sessionID}

	var totalQty int
	var subtotal, ltmTotal float64

	for i, line := range req.Lines {
		result, err := s.PriceLine(ctx, line.Request)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		saved.Results = append(saved.Results, result)

		breakdown, err := json.Marshal(lineBreakdown(line.Request, result))
		if err != nil {
			return nil, fmt.Errorf("line %d breakdown: %w", i+1, err)
		}

		ltmPerUnit := 0.0
		if result.HasLTM() {
			ltmPerUnit = result.LTMFee / float64(result.Quantity)
		}

		saved.Lines = append(saved.Lines, storage.QuoteLine{
			QuoteID:        quoteID,
			LineNumber:     i + 1,
			StyleNumber:    line.Request.StyleNumber,
			ProductName:    line.ProductName,
			Color:          line.Color,
			Method:         string(line.Request.Method),
			PrintLocation:  printLocation(line.Request.Options),
			Quantity:       result.Quantity,
			HasLTM:         result.HasLTM(),
			BaseUnitPrice:  result.BaseUnitPrice,
			LTMPerUnit:     ltmPerUnit,
			FinalUnitPrice: result.UnitPrice,
			LineTotal:      result.LineTotal,
			SizeBreakdown:  string(breakdown),
			PricingTier:    result.PricingTier,
			CreatedAt:      now,
		})

		totalQty += result.Quantity
		subtotal += result.UnitPrice*float64(result.Quantity) + result.SetupFeeTotal
		ltmTotal += result.LTMFee
	}

	saved.Session = storage.QuoteSession{
		QuoteID:        quoteID,
		SessionID:      sessionID,
		CustomerEmail:  req.CustomerEmail,
		CustomerName:   orDefault(req.CustomerName, "Guest"),
		CompanyName:    req.CompanyName,
		Phone:          req.Phone,
		TotalQuantity:  totalQty,
		SubtotalAmount: subtotal,
		LTMFeeTotal:    ltmTotal,
		TotalAmount:    subtotal + ltmTotal,
		Status:         "Open",
		Notes:          req.Notes,
		ExpiresAt:      now.Add(s.validity),
		CreatedAt:      now,
	}

	if err := s.pushRemote(ctx, saved); err != nil {
		return nil, err
	}
	if err := s.store.SaveQuote(ctx, saved.Session, saved.Lines); err != nil {
		return nil, fmt.Errorf("save quote %s locally: %w", quoteID, err)
	}

	s.logger.Info("Quote saved",
		zap.String("quote_id", quoteID),
		zap.Int("lines", len(saved.Lines)),
		zap.Float64("total", saved.Session.TotalAmount))

	if s.notifier != nil {
		s.notifier.NotifyNewQuote(ctx, saved.Session, saved.Lines)
	}
	return saved, nil
}

// Get loads a saved quote from the local store.
func (s *Service) Get(ctx context.Context, quoteID string) (*storage.QuoteSession, []storage.QuoteLine, error) {
	return s.store.GetQuote(ctx, quoteID)
}

func (s *Service) pushRemote(ctx context.Context, saved *SavedQuote) error {
	session := api.QuoteSession{
		QuoteID:        saved.QuoteID,
		SessionID:      saved.SessionID,
		CustomerEmail:  saved.Session.CustomerEmail,
		CustomerName:   saved.Session.CustomerName,
		CompanyName:    saved.Session.CompanyName,
		Phone:          saved.Session.Phone,
		TotalQuantity:  saved.Session.TotalQuantity,
		SubtotalAmount: round2(saved.Session.SubtotalAmount),
		LTMFeeTotal:    round2(saved.Session.LTMFeeTotal),
		TotalAmount:    round2(saved.Session.TotalAmount),
		Status:         saved.Session.Status,
		ExpiresAt:      saved.Session.ExpiresAt.Format(apiTimeLayout),
		Notes:          saved.Session.Notes,
	}
	if err := s.client.CreateQuoteSession(ctx, session); err != nil {
		return fmt.Errorf("push quote session %s: %w", saved.QuoteID, err)
	}

	for _, line := range saved.Lines {
		hasLTM := "No"
		if line.HasLTM {
			hasLTM = "Yes"
		}
		item := api.QuoteItem{
			QuoteID:           line.QuoteID,
			LineNumber:        line.LineNumber,
			StyleNumber:       line.StyleNumber,
			ProductName:       line.ProductName,
			Color:             line.Color,
			EmbellishmentType: line.Method,
			PrintLocation:     line.PrintLocation,
			Quantity:          line.Quantity,
			HasLTM:            hasLTM,
			BaseUnitPrice:     round2(line.BaseUnitPrice),
			LTMPerUnit:        round2(line.LTMPerUnit),
			FinalUnitPrice:    round2(line.FinalUnitPrice),
			LineTotal:         round2(line.LineTotal),
			SizeBreakdown:     line.SizeBreakdown,
			PricingTier:       line.PricingTier,
			AddedAt:           line.CreatedAt.Format(apiTimeLayout),
		}
		if err := s.client.CreateQuoteItem(ctx, item); err != nil {
			return fmt.Errorf("push quote item %s line %d: %w", line.QuoteID, line.LineNumber, err)
		}
	}
	return nil
}

// lineBreakdown keeps the inputs that explain a price, for display and audit.
func lineBreakdown(req pricing.QuoteRequest, result *pricing.QuoteResult) map[string]any {
	b := map[string]any{
		"size":        req.Size,
		"pricingTier": result.PricingTier,
	}
	if req.Options.StitchCount > 0 {
		b["stitchCount"] = req.Options.StitchCount
	}
	if req.Options.ThreadColors > 0 {
		b["threadColors"] = req.Options.ThreadColors
	}
	if req.Options.BackLogo {
		b["backLogoStitches"] = req.Options.BackLogoStitches
	}
	if len(req.Options.Locations) > 0 {
		b["locations"] = req.Options.Locations
		b["darkGarment"] = req.Options.DarkGarment
	}
	if len(result.SetupFees) > 0 {
		b["setupFees"] = result.SetupFees
	}
	return b
}

func printLocation(o pricing.Options) string {
	if len(o.Locations) == 0 {
		return ""
	}
	return o.Locations[0].Name
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// The Caspio proxy rejects fractional seconds.
const apiTimeLayout = "2006-01-02T15:04:05"

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
