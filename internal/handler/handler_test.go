package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/mocks"
	customError "github.com/segyhp/lending-engine/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func newTestRouter(svc *mocks.MockLoanService) http.Handler {
	return NewRouter(NewLoanHandler(svc), NewHealthHandler(nil, nil, time.Second))
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &buf))

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func sampleLoan() *domain.Loan {
	return &domain.Loan{
		ID:              "loan-1",
		BorrowerName:    "Ivan",
		Amount:          decimal.NewFromInt(100000),
		Status:          domain.LoanStatusPending,
		Frequency:       domain.FrequencyMonthly,
		TermMonths:      12,
		RemainingAmount: decimal.NewFromInt(106620),
	}
}

func decimalEq(v int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(v)) })
}

func TestCreateLoan(t *testing.T) {
	valid := map[string]interface{}{
		"borrower_name":    "Ivan",
		"borrower_contact": "+79001234567",
		"amount":           100000,
		"rate_percent":     12,
		"term_months":      12,
		"frequency":        "monthly",
		"start_date":       "2024-01-15",
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*mocks.MockLoanService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "created",
			body: valid,
			setupMock: func(svc *mocks.MockLoanService) {
				svc.On("CreateLoan", mock.Anything, mock.MatchedBy(func(req domain.CreateLoanRequest) bool {
					return req.BorrowerName == "Ivan" && req.Amount.Equal(decimal.NewFromInt(100000)) &&
						req.Frequency == domain.FrequencyMonthly
				})).Return(sampleLoan(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed json",
			body:           `{"borrower_name": `,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeValidation,
		},
		{
			name: "unknown frequency",
			body: map[string]interface{}{
				"borrower_name": "Ivan", "borrower_contact": "1", "amount": 1,
				"term_months": 1, "frequency": "yearly", "start_date": "2024-01-15",
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeValidation,
		},
		{
			name: "profile incomplete",
			body: valid,
			setupMock: func(svc *mocks.MockLoanService) {
				svc.On("CreateLoan", mock.Anything, mock.Anything).Return(nil, customError.WrapProfileIncomplete())
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   customError.ErrCodeProfileIncomplete,
		},
		{
			name: "engine rejects terms",
			body: valid,
			setupMock: func(svc *mocks.MockLoanService) {
				svc.On("CreateLoan", mock.Anything, mock.Anything).
					Return(nil, customError.NewValidationError("start_date", "must be a valid date"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockLoanService{}
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			w, env := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/loans", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, env.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestGetLoan(t *testing.T) {
	svc := &mocks.MockLoanService{}
	svc.On("GetLoan", mock.Anything, "loan-1").Return(sampleLoan(), nil)
	svc.On("GetLoan", mock.Anything, "missing").Return(nil, customError.WrapLoanNotFound("missing"))
	router := newTestRouter(svc)

	w, env := do(t, router, http.MethodGet, "/api/v1/loans/loan-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loan domain.Loan
	require.NoError(t, json.Unmarshal(env.Data, &loan))
	assert.Equal(t, "loan-1", loan.ID)
	assert.True(t, loan.RemainingAmount.Equal(decimal.NewFromInt(106620)))

	w, env = do(t, router, http.MethodGet, "/api/v1/loans/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, customError.ErrCodeLoanNotFound, env.Code)
}

func TestLookupLoans(t *testing.T) {
	svc := &mocks.MockLoanService{}
	svc.On("FindLoansByContact", mock.Anything, "+79001234567").Return([]*domain.Loan{sampleLoan()}, nil)
	router := newTestRouter(svc)

	w, env := do(t, router, http.MethodGet, "/api/v1/loans/lookup?phone=%2B79001234567", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loans []domain.Loan
	require.NoError(t, json.Unmarshal(env.Data, &loans))
	assert.Len(t, loans, 1)

	w, _ = do(t, router, http.MethodGet, "/api/v1/loans/lookup", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "GetLoan", mock.Anything, "lookup")
}

func TestListLoans_PassesStatus(t *testing.T) {
	svc := &mocks.MockLoanService{}
	svc.On("ListLoans", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{}, nil)

	w, _ := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/loans?status=active", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAcceptLoan(t *testing.T) {
	svc := &mocks.MockLoanService{}
	req := domain.AcceptLoanRequest{
		BorrowerName: "Ivan", Passport: "4500 123456", Address: "Moscow",
		TermsConfirmed: true, ReceiptSigned: true,
	}
	active := sampleLoan()
	active.Status = domain.LoanStatusActive
	svc.On("AcceptLoan", mock.Anything, "loan-1", req).Return(active, nil)

	w, _ := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/loans/loan-1/accept", req)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/loans/loan-1/accept",
		map[string]interface{}{"borrower_name": "Ivan", "address": "Moscow"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "passport")
}

func TestCancelLoan_Terminal(t *testing.T) {
	svc := &mocks.MockLoanService{}
	svc.On("CancelLoan", mock.Anything, "loan-1").
		Return(nil, customError.WrapInvalidTransition("loan-1", "closed", "cancelled"))

	w, env := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/loans/loan-1/cancel", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, customError.ErrCodeInvalidTransition, env.Code)
}

func TestRateLoan_Validation(t *testing.T) {
	svc := &mocks.MockLoanService{}
	router := newTestRouter(svc)

	w, _ := do(t, router, http.MethodPost, "/api/v1/loans/loan-1/rating", map[string]interface{}{"role": "lender", "stars": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPost, "/api/v1/loans/loan-1/rating", map[string]interface{}{"role": "guest", "stars": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNotCalled(t, "RateLoan", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentFlow(t *testing.T) {
	svc := &mocks.MockLoanService{}
	pending := &domain.PaymentRequest{
		ID: "req-1", LoanID: "loan-1", Amount: decimal.NewFromInt(8885), Status: domain.PaymentStatusPending,
	}
	confirmed := *pending
	confirmed.Status = domain.PaymentStatusConfirmed

	svc.On("RequestPayment", mock.Anything, "loan-1", decimalEq(8885)).Return(pending, nil)
	svc.On("ListPaymentRequests", mock.Anything, "loan-1").Return([]*domain.PaymentRequest{pending}, nil)
	svc.On("ConfirmPayment", mock.Anything, "req-1").
		Return(&domain.ConfirmPaymentResponse{Request: &confirmed, Loan: sampleLoan()}, nil)
	svc.On("RejectPayment", mock.Anything, "req-1").
		Return(nil, customError.WrapPaymentAlreadyResolved("req-1", "confirmed"))
	router := newTestRouter(svc)

	w, _ := do(t, router, http.MethodPost, "/api/v1/loans/loan-1/payments", map[string]interface{}{"amount": "8885"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env := do(t, router, http.MethodGet, "/api/v1/loans/loan-1/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.PaymentRequest
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w, env = do(t, router, http.MethodPost, "/api/v1/payments/req-1/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result domain.ConfirmPaymentResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, domain.PaymentStatusConfirmed, result.Request.Status)

	w, env = do(t, router, http.MethodPost, "/api/v1/payments/req-1/reject", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, customError.ErrCodePaymentAlreadyResolved, env.Code)

	svc.AssertExpectations(t)
}

func TestQuote(t *testing.T) {
	svc := &mocks.MockLoanService{}
	svc.On("Quote", mock.Anything, mock.MatchedBy(func(req domain.QuoteRequest) bool {
		return req.Months == 12 && req.Amount.Equal(decimal.NewFromInt(100000))
	})).Return(&domain.QuoteResponse{Months: 12, Total: decimal.NewFromInt(120000)}, nil)
	router := newTestRouter(svc)

	w, env := do(t, router, http.MethodPost, "/api/v1/loan/calc", map[string]interface{}{"amount": 100000, "rate": 20, "months": 12})
	require.Equal(t, http.StatusOK, w.Code)
	var quote map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Contains(t, quote, "monthlyPayment")

	w, _ = do(t, router, http.MethodPost, "/api/v1/loan/calc", map[string]interface{}{"amount": 100000, "rate": 20, "months": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile(t *testing.T) {
	svc := &mocks.MockLoanService{}
	profile := domain.LenderProfile{
		Name: "Petr", Passport: "4500 000000", Address: "Kazan", PaymentInfo: "card", Phone: "+79990000000",
	}
	svc.On("SaveLenderProfile", mock.Anything, profile).Return(&profile, nil)
	svc.On("GetLenderProfile", mock.Anything).Return(nil, customError.WrapProfileNotFound())
	router := newTestRouter(svc)

	w, _ := do(t, router, http.MethodPut, "/api/v1/profile", profile)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInternalErrorIsHidden(t *testing.T) {
	svc := &mocks.MockLoanService{}
	svc.On("GetSchedule", mock.Anything, "loan-1").
		Return(nil, customError.WrapDatabaseError(errors.New("pq: relation does not exist")))

	w, _ := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/loans/loan-1/schedule", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestHealth(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		w, env := do(t, newTestRouter(&mocks.MockLoanService{}), http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
	})

	t.Run("ready", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		rdb, redisMock := redismock.NewClientMock()

		dbMock.ExpectPing()
		redisMock.ExpectPing().SetVal("PONG")

		router := NewRouter(NewLoanHandler(&mocks.MockLoanService{}), NewHealthHandler(db, rdb, time.Second))
		w, _ := do(t, router, http.MethodGet, "/health/ready", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("not ready", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		router := NewRouter(NewLoanHandler(&mocks.MockLoanService{}), NewHealthHandler(db, nil, time.Second))
		w, env := do(t, router, http.MethodGet, "/health/ready", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var status HealthStatus
		require.NoError(t, json.Unmarshal(env.Data, &status))
		assert.Equal(t, "disabled", status.Checks["redis"])
		assert.Contains(t, status.Checks["database"], "connection refused")
	})
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&mocks.MockLoanService{}).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/loans", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
