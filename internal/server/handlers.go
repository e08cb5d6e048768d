package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"decoquote/internal/pricing"
	"decoquote/internal/quote"
	"decoquote/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// priceRequest is one line to price, without saving anything.
type priceRequest struct {
	Method      string          `json:"method"`
	StyleNumber string          `json:"styleNumber"`
	Quantity    int             `json:"quantity"`
	Size        string          `json:"size"`
	Options     pricing.Options `json:"options"`
}

func (p priceRequest) toRequest() pricing.QuoteRequest {
	return pricing.QuoteRequest{
		Method:      pricing.Method(p.Method),
		StyleNumber: p.StyleNumber,
		Quantity:    p.Quantity,
		Size:        p.Size,
		Options:     p.Options,
	}
}

type saveRequest struct {
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	CompanyName   string     `json:"companyName"`
	Phone         string     `json:"phone"`
	Notes         string     `json:"notes"`
	Lines         []saveLine `json:"lines"`
}

type saveLine struct {
	priceRequest
	ProductName string `json:"productName"`
	Color       string `json:"color"`
}

type saveResponse struct {
	QuoteID   string                 `json:"quoteID"`
	SessionID string                 `json:"sessionID"`
	Total     float64                `json:"total"`
	LTMFee    float64                `json:"ltmFeeTotal"`
	ExpiresAt string                 `json:"expiresAt"`
	Results   []*pricing.QuoteResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.quotes.PriceLine(r.Context(), req.toRequest())
	if err != nil {
		s.writePricingError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Lines) == 0 {
		s.writeError(w, http.StatusBadRequest, "quote has no lines")
		return
	}

	in := quote.SaveRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CompanyName:   req.CompanyName,
		Phone:         req.Phone,
		Notes:         req.Notes,
	}
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, quote.LineInput{
			Request:     line.toRequest(),
			ProductName: line.ProductName,
			Color:       line.Color,
		})
	}

	saved, err := s.quotes.Save(r.Context(), in)
	if err != nil {
		s.writePricingError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, saveResponse{
		QuoteID:   saved.QuoteID,
		SessionID: saved.SessionID,
		Total:     saved.Session.TotalAmount,
		LTMFee:    saved.Session.LTMFeeTotal,
		ExpiresAt: saved.Session.ExpiresAt.Format("2006-01-02"),
		Results:   saved.Results,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "quoteID")

	session, lines, err := s.quotes.Get(r.Context(), quoteID)
	if err != nil {
		if errors.Is(err, storage.ErrQuoteNotFound) {
			s.writeError(w, http.StatusNotFound, "quote not found")
			return
		}
		s.logger.Error("Failed to load quote",
			zap.String("quote_id", quoteID),
			zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load quote")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"items":   lines,
	})
}

// writePricingError maps engine validation failures to 4xx and upstream
// failures to 502. Callers always get an explicit message, never a silent
// zero price.
func (s *Server) writePricingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrUnknownMethod),
		errors.Is(err, pricing.ErrSizeNotFound):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrMalformedPriceTable):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("Pricing unavailable", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "pricing unavailable for this selection")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
