package quote

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Daily sequence counters expire on their own; no cleanup pass needed.
const sequenceExpiry = 48 * time.Hour

// GenerateQuoteID builds the customer-facing quote ID: method prefix, month
// and day, then the day's sequence number (e.g. EMB0828-3). The counter lives
// in redis so concurrent quote builders never collide.
func (s *Service) GenerateQuoteID(ctx context.Context, prefix string) (string, error) {
	dateKey := time.Now().Format("0102")
	seqKey := fmt.Sprintf("quote_seq:%s:%s", prefix, dateKey)

	seq, err := s.cache.NextSequence(ctx, seqKey, sequenceExpiry)
	if err != nil {
		return "", fmt.Errorf("quote sequence: %w", err)
	}
	return fmt.Sprintf("%s%s-%d", prefix, dateKey, seq), nil
}

// newSessionID builds an internal session identifier. Uniqueness matters,
// prettiness does not.
func newSessionID(prefix string) string {
	return fmt.Sprintf("%s_sess_%d_%09x", strings.ToLower(prefix), time.Now().UnixMilli(), rand.Int31())
}
