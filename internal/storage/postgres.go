package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"decoquote/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrQuoteNotFound is returned when a quote ID has no saved session.
var ErrQuoteNotFound = errors.New("quote not found")

type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// QuoteSession is one saved quote header. Column names mirror the remote
// quote API so the local copy and the Caspio row stay field-for-field
// comparable.
type QuoteSession struct {
	ID             int64     `db:"id"`
	QuoteID        string    `db:"quote_id"`
	SessionID      string    `db:"session_id"`
	CustomerEmail  string    `db:"customer_email"`
	CustomerName   string    `db:"customer_name"`
	CompanyName    string    `db:"company_name"`
	Phone          string    `db:"phone"`
	TotalQuantity  int       `db:"total_quantity"`
	SubtotalAmount float64   `db:"subtotal_amount"`
	LTMFeeTotal    float64   `db:"ltm_fee_total"`
	TotalAmount    float64   `db:"total_amount"`
	Status         string    `db:"status"`
	Notes          string    `db:"notes"`
	ExpiresAt      time.Time `db:"expires_at"`
	CreatedAt      time.Time `db:"created_at"`
}

// QuoteLine is one saved quote line item.
type QuoteLine struct {
	ID             int64     `db:"id"`
	QuoteID        string    `db:"quote_id"`
	LineNumber     int       `db:"line_number"`
	StyleNumber    string    `db:"style_number"`
	ProductName    string    `db:"product_name"`
	Color          string    `db:"color"`
	Method         string    `db:"method"`
	PrintLocation  string    `db:"print_location"`
	Quantity       int       `db:"quantity"`
	HasLTM         bool      `db:"has_ltm"`
	BaseUnitPrice  float64   `db:"base_unit_price"`
	LTMPerUnit     float64   `db:"ltm_per_unit"`
	FinalUnitPrice float64   `db:"final_unit_price"`
	LineTotal      float64   `db:"line_total"`
	SizeBreakdown  string    `db:"size_breakdown"` // JSON blob, shape varies by method
	PricingTier    string    `db:"pricing_tier"`
	CreatedAt      time.Time `db:"created_at"`
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{
		db:     db,
		logger: logger,
	}, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for migrations.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

// SaveQuote stores the session and its lines in one transaction.
func (s *PostgresStorage) SaveQuote(ctx context.Context, session QuoteSession, lines []QuoteLine) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const sessionQuery = `
        INSERT INTO quote_sessions (
            quote_id, session_id, customer_email, customer_name, company_name,
            phone, total_quantity, subtotal_amount, ltm_fee_total, total_amount,
            status, notes, expires_at, created_at
        ) VALUES (
            :quote_id, :session_id, :customer_email, :customer_name, :company_name,
            :phone, :total_quantity, :subtotal_amount, :ltm_fee_total, :total_amount,
            :status, :notes, :expires_at, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, sessionQuery, session); err != nil {
		return fmt.Errorf("insert quote session %s: %w", session.QuoteID, err)
	}

	const lineQuery = `
        INSERT INTO quote_items (
            quote_id, line_number, style_number, product_name, color, method,
            print_location, quantity, has_ltm, base_unit_price, ltm_per_unit,
            final_unit_price, line_total, size_breakdown, pricing_tier, created_at
        ) VALUES (
            :quote_id, :line_number, :style_number, :product_name, :color, :method,
            :print_location, :quantity, :has_ltm, :base_unit_price, :ltm_per_unit,
            :final_unit_price, :line_total, :size_breakdown, :pricing_tier, :created_at
        )
    `
	for _, line := range lines {
		if _, err := tx.NamedExecContext(ctx, lineQuery, line); err != nil {
			return fmt.Errorf("insert quote item %s line %d: %w", line.QuoteID, line.LineNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit quote %s: %w", session.QuoteID, err)
	}
	return nil
}

// GetQuote loads a saved quote and its lines.
func (s *PostgresStorage) GetQuote(ctx context.Context, quoteID string) (*QuoteSession, []QuoteLine, error) {
	var session QuoteSession
	err := s.db.GetContext(ctx, &session,
		`SELECT * FROM quote_sessions WHERE quote_id = $1`, quoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrQuoteNotFound, quoteID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get quote session %s: %w", quoteID, err)
	}

	var lines []QuoteLine
	err = s.db.SelectContext(ctx, &lines,
		`SELECT * FROM quote_items WHERE quote_id = $1 ORDER BY line_number`, quoteID)
	if err != nil {
		return nil, nil, fmt.Errorf("get quote items %s: %w", quoteID, err)
	}

	return &session, lines, nil
}

// UpdateQuoteStatus moves a quote through Open/Accepted/Expired.
func (s *PostgresStorage) UpdateQuoteStatus(ctx context.Context, quoteID, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE quote_sessions SET status = $2 WHERE quote_id = $1`, quoteID, status)
	if err != nil {
		return fmt.Errorf("update quote status %s: %w", quoteID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrQuoteNotFound, quoteID)
	}
	return nil
}

// ListOpenQuotes returns unexpired open quotes, newest first.
func (s *PostgresStorage) ListOpenQuotes(ctx context.Context) ([]QuoteSession, error) {
	var sessions []QuoteSession
	err := s.db.SelectContext(ctx, &sessions,
		`SELECT * FROM quote_sessions WHERE status = 'Open' AND expires_at > now() ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list open quotes: %w", err)
	}
	return sessions, nil
}
