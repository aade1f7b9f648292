// Package api serves the dashboard, balance and trade views over JSON.
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Route is one entry in the REST table.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// RESTLogger logs each request with its route name and latency.
func RESTLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)

		log.Printf("[API] %s\t%s\t%s\t%s", r.Method, r.RequestURI, name, time.Since(start))
	})
}

func (s *Server) routes() []Route {
	return []Route{
		{"Dashboard", http.MethodGet, "/api/dashboard", s.getDashboard},
		{"RefreshPortfolio", http.MethodPost, "/api/portfolio/refresh", s.refreshPortfolio},
		{"GetPosition", http.MethodGet, "/api/portfolio/{ticker}", s.getPosition},
		{"GetBalance", http.MethodGet, "/api/balance", s.getBalance},
		{"Deposit", http.MethodPost, "/api/balance/deposit", s.deposit},
		{"Withdraw", http.MethodPost, "/api/balance/withdraw", s.withdraw},
		{"StockQuote", http.MethodGet, "/api/stocks/{ticker}/quote", s.getQuote},
		{"StockInfo", http.MethodGet, "/api/stocks/{ticker}/info", s.getInfo},
		{"StockNews", http.MethodGet, "/api/stocks/{ticker}/news", s.getNews},
		{"StockHistory", http.MethodGet, "/api/stocks/{ticker}/history", s.getHistory},
		{"Buy", http.MethodPost, "/api/trade/buy", s.buy},
		{"Sell", http.MethodPost, "/api/trade/sell", s.sell},
	}
}

// Router returns the mux with every route registered.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	for _, route := range s.routes() {
		var handler http.Handler = route.HandlerFunc
		handler = RESTLogger(handler, route.Name)

		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
	return router
}
