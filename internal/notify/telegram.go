// Package notify tells the production staff about saved quotes.
package notify

import (
	"context"
	"fmt"
	"strings"

	"decoquote/internal/config"
	"decoquote/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram pushes new-quote summaries to the staff channel and admins, with
// the Excel export attached. All sends are best-effort: failures are logged,
// never escalated to the caller.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	cfg    config.TelegramConfig
	logger *zap.Logger
}

// New connects the notifier bot. Returns nil when no token is configured;
// callers treat a nil notifier as disabled.
func New(cfg config.TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	if cfg.Token == "" {
		logger.Info("Telegram notifications disabled - no token configured")
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Telegram{bot: bot, cfg: cfg, logger: logger}, nil
}

func (t *Telegram) NotifyNewQuote(ctx context.Context, session storage.QuoteSession, lines []storage.QuoteLine) {
	text := formatQuoteNotification(session, lines)

	if t.cfg.ChannelID != 0 {
		msg := tgbotapi.NewMessage(t.cfg.ChannelID, text)
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Error("Failed to send channel notification",
				zap.String("quote_id", session.QuoteID),
				zap.Error(err))
		}
	}

	for _, adminID := range t.cfg.AdminIDs {
		if adminID == 0 {
			continue
		}
		t.notifyAdmin(adminID, session, lines, text)
	}
}

func (t *Telegram) notifyAdmin(chatID int64, session storage.QuoteSession, lines []storage.QuoteLine, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Failed to send admin notification",
			zap.Int64("chat_id", chatID),
			zap.String("quote_id", session.QuoteID),
			zap.Error(err))
		return
	}

	filepath, err := storage.ExportQuoteToExcel(&session, lines)
	if err != nil {
		t.logger.Error("Failed to create Excel file for quote",
			zap.String("quote_id", session.QuoteID),
			zap.Error(err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filepath))
	doc.Caption = fmt.Sprintf("Quote %s details", session.QuoteID)
	if _, err := t.bot.Send(doc); err != nil {
		t.logger.Error("Failed to send Excel file to admin",
			zap.Int64("chat_id", chatID),
			zap.String("quote_id", session.QuoteID),
			zap.Error(err))
	}
}

func formatQuoteNotification(session storage.QuoteSession, lines []storage.QuoteLine) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New quote %s\n", session.QuoteID)
	fmt.Fprintf(&b, "Customer: %s", session.CustomerName)
	if session.CompanyName != "" {
		fmt.Fprintf(&b, " (%s)", session.CompanyName)
	}
	b.WriteString("\n")
	if session.CustomerEmail != "" {
		fmt.Fprintf(&b, "Email: %s\n", session.CustomerEmail)
	}

	for _, line := range lines {
		fmt.Fprintf(&b, "- %dx %s", line.Quantity, line.ProductName)
		if line.StyleNumber != "" {
			fmt.Fprintf(&b, " (%s)", line.StyleNumber)
		}
		fmt.Fprintf(&b, " @ $%.2f, tier %s\n", line.FinalUnitPrice, line.PricingTier)
	}

	if session.LTMFeeTotal > 0 {
		fmt.Fprintf(&b, "LTM fee: $%.2f\n", session.LTMFeeTotal)
	}
	fmt.Fprintf(&b, "Total: $%.2f (%d pcs)\n", session.TotalAmount, session.TotalQuantity)
	fmt.Fprintf(&b, "Expires: %s", session.ExpiresAt.Format("2006-01-02"))

	return b.String()
}
