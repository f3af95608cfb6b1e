package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/response"
)

// LoanService is the subset of the service layer the HTTP API needs
type LoanService interface {
	SaveLenderProfile(ctx context.Context, profile domain.LenderProfile) (*domain.LenderProfile, error)
	GetLenderProfile(ctx context.Context) (*domain.LenderProfile, error)
	CreateLoan(ctx context.Context, req domain.CreateLoanRequest) (*domain.Loan, error)
	GetLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error)
	FindLoansByContact(ctx context.Context, phone string) ([]*domain.Loan, error)
	GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error)
	GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error)
	AcceptLoan(ctx context.Context, loanID string, req domain.AcceptLoanRequest) (*domain.Loan, error)
	CancelLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	RateLoan(ctx context.Context, loanID string, req domain.RateLoanRequest) (*domain.Loan, error)
	RequestPayment(ctx context.Context, loanID string, amount decimal.Decimal) (*domain.PaymentRequest, error)
	ListPaymentRequests(ctx context.Context, loanID string) ([]*domain.PaymentRequest, error)
	ConfirmPayment(ctx context.Context, requestID string) (*domain.ConfirmPaymentResponse, error)
	RejectPayment(ctx context.Context, requestID string) (*domain.PaymentRequest, error)
	Quote(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResponse, error)
}

type LoanHandler struct {
	service   LoanService
	validator *validator.Validate
}

func NewLoanHandler(service LoanService) *LoanHandler {
	v := validator.New()
	// report json field names instead of go ones
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &LoanHandler{
		service:   service,
		validator: v,
	}
}

// SaveProfile handles PUT /api/v1/profile
func (h *LoanHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.LenderProfile
	if err := h.decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	profile, err := h.service.SaveLenderProfile(r.Context(), req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, profile)
}

// GetProfile handles GET /api/v1/profile
func (h *LoanHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetLenderProfile(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, profile)
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if err := h.decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, loan)
}

// ListLoans handles GET /api/v1/loans?status=
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	status := domain.LoanStatus(r.URL.Query().Get("status"))

	loans, err := h.service.ListLoans(r.Context(), status)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, loans)
}

// LookupLoans handles GET /api/v1/loans/lookup?phone=
func (h *LoanHandler) LookupLoans(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		response.FromError(w, r, customError.NewValidationError("phone", "query parameter is required"))
		return
	}

	loans, err := h.service.FindLoansByContact(r.Context(), phone)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, loans)
}

// GetLoan handles GET /api/v1/loans/{loanId}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, loan)
}

// GetSchedule handles GET /api/v1/loans/{loanId}/schedule
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, schedule)
}

// GetOutstanding handles GET /api/v1/loans/{loanId}/outstanding
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	outstanding, err := h.service.GetOutstanding(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, outstanding)
}

// AcceptLoan handles POST /api/v1/loans/{loanId}/accept
func (h *LoanHandler) AcceptLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.AcceptLoanRequest
	if err := h.decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	loan, err := h.service.AcceptLoan(r.Context(), mux.Vars(r)["loanId"], req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, loan)
}

// CancelLoan handles POST /api/v1/loans/{loanId}/cancel
func (h *LoanHandler) CancelLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.CancelLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, loan)
}

// RateLoan handles POST /api/v1/loans/{loanId}/rating
func (h *LoanHandler) RateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.RateLoanRequest
	if err := h.decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	loan, err := h.service.RateLoan(r.Context(), mux.Vars(r)["loanId"], req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, loan)
}

// CreatePaymentRequest handles POST /api/v1/loans/{loanId}/payments
func (h *LoanHandler) CreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePaymentRequest
	if err := h.decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	payment, err := h.service.RequestPayment(r.Context(), mux.Vars(r)["loanId"], req.Amount)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, payment)
}

// ListPaymentRequests handles GET /api/v1/loans/{loanId}/payments
func (h *LoanHandler) ListPaymentRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListPaymentRequests(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, requests)
}

// ConfirmPayment handles POST /api/v1/payments/{requestId}/confirm
func (h *LoanHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ConfirmPayment(r.Context(), mux.Vars(r)["requestId"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, result)
}

// RejectPayment handles POST /api/v1/payments/{requestId}/reject
func (h *LoanHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.RejectPayment(r.Context(), mux.Vars(r)["requestId"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, payment)
}

// Quote handles POST /api/v1/loan/calc
func (h *LoanHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if err := h.decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Success(w, quote)
}

func (h *LoanHandler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return customError.NewValidationError("body", "invalid request body")
	}

	if err := h.validator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return customError.NewValidationError(fe.Field(), describe(fe))
		}
		return customError.NewValidationError("body", err.Error())
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}
