package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/lending-engine/pkg/response"
)

// NewRouter wires every endpoint and wraps the router with the CORS, trace
// and request logging middleware.
func NewRouter(loanHandler *LoanHandler, healthHandler *HealthHandler) http.Handler {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/profile", loanHandler.SaveProfile).Methods("PUT")
	api.HandleFunc("/profile", loanHandler.GetProfile).Methods("GET")

	api.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", loanHandler.ListLoans).Methods("GET")
	api.HandleFunc("/loans/lookup", loanHandler.LookupLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", loanHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/schedule", loanHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/loans/{loanId}/outstanding", loanHandler.GetOutstanding).Methods("GET")
	api.HandleFunc("/loans/{loanId}/accept", loanHandler.AcceptLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/cancel", loanHandler.CancelLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/rating", loanHandler.RateLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/payments", loanHandler.CreatePaymentRequest).Methods("POST")
	api.HandleFunc("/loans/{loanId}/payments", loanHandler.ListPaymentRequests).Methods("GET")

	api.HandleFunc("/payments/{requestId}/confirm", loanHandler.ConfirmPayment).Methods("POST")
	api.HandleFunc("/payments/{requestId}/reject", loanHandler.RejectPayment).Methods("POST")

	api.HandleFunc("/loan/calc", loanHandler.Quote).Methods("POST")

	// preflight requests never match a route, so CORS wraps the router
	return response.CORSMiddleware(response.TraceMiddleware(response.LoggingMiddleware(router)))
}
