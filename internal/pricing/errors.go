package pricing

import "errors"

var (
	// ErrInvalidQuantity is returned when a quote quantity is zero or negative.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrUnknownMethod is returned when no configuration is registered for a
	// decoration method.
	ErrUnknownMethod = errors.New("unknown decoration method")

	// ErrSizeNotFound is returned when the requested size has no price in the
	// resolved tier. Callers decide the fallback; the engine never substitutes
	// a price silently.
	ErrSizeNotFound = errors.New("size not found in price table")

	// ErrMalformedPriceTable is returned at table construction time when the
	// upstream pricing data is missing required fields.
	ErrMalformedPriceTable = errors.New("malformed price table")
)
