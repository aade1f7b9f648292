package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"paper_trading/internal/ledger"
	"paper_trading/internal/market"
	"paper_trading/internal/models"
	"paper_trading/internal/valuation"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

var errBadRequest = errors.New("invalid request")

// marketError marks a failed upstream market call.
type marketError struct{ err error }

func (e *marketError) Error() string { return e.err.Error() }
func (e *marketError) Unwrap() error { return e.err }

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type tradeRequest struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type tradeResponse struct {
	Quote   models.Quote    `json:"quote"`
	Total   decimal.Decimal `json:"total"`
	Balance decimal.Decimal `json:"balance"`
}

// writeJSON outputs a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("[API] failed to send JSON response: %v", err)
	}
}

// writeError maps an error to its status code.
func writeError(w http.ResponseWriter, err error) {
	var me *marketError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientQuantity),
		errors.Is(err, ledger.ErrPortfolioFull):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrPositionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidQuote):
		status = http.StatusBadRequest
	case errors.As(err, &me):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func tickerVar(r *http.Request) string {
	return models.NormalizeTicker(mux.Vars(r)["ticker"])
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, valuation.Summarize(s.ledger.Snapshot()))
}

func (s *Server) refreshPortfolio(w http.ResponseWriter, r *http.Request) {
	report, err := s.ledger.RefreshPrices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	ticker := tickerVar(r)
	p, ok := s.ledger.PositionByTicker(ticker)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", ledger.ErrPositionNotFound, ticker))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, balanceResponse{Balance: s.ledger.Balance()})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.Deposit(r.Context(), req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: s.ledger.Balance()})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.Withdraw(r.Context(), req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: s.ledger.Balance()})
}

func (s *Server) quote(ticker string) (models.Quote, error) {
	q, err := market.FetchQuote(s.provider, ticker, s.now())
	if err != nil {
		return models.Quote{}, &marketError{err}
	}
	return q, nil
}

func (s *Server) getQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.quote(tickerVar(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	a, err := s.provider.GetInfo(tickerVar(r))
	if err != nil {
		writeError(w, &marketError{err})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getNews(w http.ResponseWriter, r *http.Request) {
	items, err := s.provider.GetNews(tickerVar(r))
	if err != nil {
		writeError(w, &marketError{err})
		return
	}
	if items == nil {
		items = []models.NewsItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	bars, err := s.provider.GetHistory(tickerVar(r))
	if err != nil {
		writeError(w, &marketError{err})
		return
	}
	if bars == nil {
		bars = []models.Bar{}
	}
	writeJSON(w, http.StatusOK, bars)
}

func (s *Server) buy(w http.ResponseWriter, r *http.Request) {
	s.trade(w, r, false, s.ledger.Buy)
}

func (s *Server) sell(w http.ResponseWriter, r *http.Request) {
	s.trade(w, r, true, s.ledger.Sell)
}

type tradeFunc func(ctx context.Context, quantity int64, q models.Quote) error

// trade quotes the ticker and runs exec. Sells of an unheld ticker are
// rejected before any market call.
func (s *Server) trade(w http.ResponseWriter, r *http.Request, mustHold bool, exec tradeFunc) {
	var req tradeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Quantity <= 0 {
		writeError(w, ledger.ErrInvalidQuantity)
		return
	}
	ticker := models.NormalizeTicker(req.Ticker)
	if ticker == "" {
		writeError(w, fmt.Errorf("%w: missing ticker", errBadRequest))
		return
	}
	if _, held := s.ledger.PositionByTicker(ticker); mustHold && !held {
		writeError(w, fmt.Errorf("%w: %s", ledger.ErrPositionNotFound, ticker))
		return
	}

	q, err := s.quote(ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := exec(r.Context(), req.Quantity, q); err != nil {
		writeError(w, err)
		return
	}

	gross := q.Price.Mul(decimal.NewFromInt(req.Quantity))
	total := valuation.DebitCents(gross)
	if mustHold {
		total = valuation.CreditCents(gross)
	}
	writeJSON(w, http.StatusOK, tradeResponse{
		Quote:   q,
		Total:   total,
		Balance: s.ledger.Balance(),
	})
}
