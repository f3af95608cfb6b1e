package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/segyhp/lending-engine/internal/cache"
	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/engine"
	"github.com/segyhp/lending-engine/internal/lock"
	"github.com/segyhp/lending-engine/internal/repository"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/logger"
	"github.com/segyhp/lending-engine/pkg/tracing"
	"github.com/segyhp/lending-engine/pkg/utils"
)

type LoanService struct {
	loanRepo    repository.LoanRepository
	paymentRepo repository.PaymentRepository
	profileRepo repository.ProfileRepository
	cache       cache.LoanCache
	locker      lock.Locker

	now   func() time.Time
	newID func() string
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	profileRepo repository.ProfileRepository,
	loanCache cache.LoanCache,
	locker lock.Locker,
) *LoanService {
	return &LoanService{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		profileRepo: profileRepo,
		cache:       loanCache,
		locker:      locker,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// SaveLenderProfile creates or replaces the lender profile
func (s *LoanService) SaveLenderProfile(ctx context.Context, profile domain.LenderProfile) (*domain.LenderProfile, error) {
	if !profile.Complete() {
		return nil, customError.NewValidationError("profile", "name, passport, address, payment info and phone are required")
	}

	profile.UpdatedAt = s.now()
	if err := s.profileRepo.Save(ctx, &profile); err != nil {
		return nil, dbError(err)
	}

	logger.CtxInfo(ctx, "lender profile saved")
	return &profile, nil
}

func (s *LoanService) GetLenderProfile(ctx context.Context) (*domain.LenderProfile, error) {
	profile, err := s.profileRepo.Get(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return profile, nil
}

// CreateLoan drafts a pending loan with its full schedule. The lender
// profile must be complete since the receipt is drawn up from it.
func (s *LoanService) CreateLoan(ctx context.Context, req domain.CreateLoanRequest) (*domain.Loan, error) {
	ctx, span := tracing.Start(ctx, "LoanService.CreateLoan")
	defer span.End()

	profile, err := s.profileRepo.Get(ctx)
	if err != nil {
		if customError.IsNotFound(err) {
			return nil, customError.WrapProfileIncomplete()
		}
		return nil, dbError(err)
	}
	if !profile.Complete() {
		return nil, customError.WrapProfileIncomplete()
	}

	loan, err := engine.NewLoan(s.newID(), req, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.Create(ctx, &loan); err != nil {
		return nil, recordError(span, dbError(err))
	}
	s.cacheLoan(ctx, &loan)

	span.SetAttributes(attribute.String("loan.id", loan.ID))
	logger.CtxInfo(ctx, "loan created",
		zap.String("loan_id", loan.ID),
		zap.String("frequency", string(loan.Frequency)),
		zap.Int("installments", len(loan.Schedule)),
		zap.String("total_repayment", loan.TotalRepayment.String()),
	)

	return &loan, nil
}

// GetLoan returns a loan snapshot, served from cache when possible
func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	if cached, ok, err := s.cache.Get(ctx, loanID); err != nil {
		logger.CtxWarn(ctx, "loan cache read failed", zap.String("loan_id", loanID), zap.Error(err))
	} else if ok {
		logger.CtxDebug(ctx, "loan served from cache", zap.String("loan_id", loanID))
		return cached, nil
	}

	return s.loadAndCache(ctx, loanID)
}

// loadAndCache reads the loan and fills the cache under the loan lock, so a
// mutation that invalidates the entry cannot interleave with the fill and
// leave an older snapshot behind. When the lock is busy the loan is served
// from the database without caching.
func (s *LoanService) loadAndCache(ctx context.Context, loanID string) (*domain.Loan, error) {
	unlock, err := s.locker.Lock(ctx, loanID)
	if err != nil {
		logger.CtxDebug(ctx, "loan locked, skipping cache fill", zap.String("loan_id", loanID), zap.Error(err))
		loan, err := s.loanRepo.GetByID(ctx, loanID)
		if err != nil {
			return nil, dbError(err)
		}
		return loan, nil
	}
	defer unlock()

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	s.cacheLoan(ctx, loan)

	return loan, nil
}

func (s *LoanService) ListLoans(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	if status != "" && !status.Valid() {
		return nil, customError.NewValidationError("status", "must be one of pending, active, closed, cancelled")
	}

	loans, err := s.loanRepo.List(ctx, status)
	if err != nil {
		return nil, dbError(err)
	}
	return loans, nil
}

// FindLoansByContact finds a borrower's loans by phone number, comparing
// only the last ten digits.
func (s *LoanService) FindLoansByContact(ctx context.Context, phone string) ([]*domain.Loan, error) {
	digits := utils.NormalizePhone(phone)
	if len(digits) < 10 {
		return nil, customError.NewValidationError("phone", "must contain at least 10 digits")
	}

	loans, err := s.loanRepo.FindByContact(ctx, digits)
	if err != nil {
		return nil, dbError(err)
	}
	return loans, nil
}

func (s *LoanService) GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &domain.ScheduleResponse{LoanID: loan.ID, Schedule: loan.Schedule}, nil
}

// GetOutstanding returns the amount still owed on a loan
func (s *LoanService) GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &domain.OutstandingResponse{
		LoanID:      loan.ID,
		Outstanding: loan.RemainingAmount,
		Status:      loan.Status,
	}, nil
}

// AcceptLoan activates a pending loan on the borrower's signature
func (s *LoanService) AcceptLoan(ctx context.Context, loanID string, req domain.AcceptLoanRequest) (*domain.Loan, error) {
	return s.mutate(ctx, loanID, "accept", func(loan domain.Loan, now time.Time) (domain.Loan, error) {
		return engine.Accept(loan, engine.AcceptInput{
			BorrowerName:   req.BorrowerName,
			Passport:       req.Passport,
			Address:        req.Address,
			TermsConfirmed: req.TermsConfirmed,
			ReceiptSigned:  req.ReceiptSigned,
		}, now)
	})
}

func (s *LoanService) CancelLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.mutate(ctx, loanID, "cancel", engine.Cancel)
}

// RateLoan stores a borrower or lender rating on a closed loan
func (s *LoanService) RateLoan(ctx context.Context, loanID string, req domain.RateLoanRequest) (*domain.Loan, error) {
	return s.mutate(ctx, loanID, "rate", func(loan domain.Loan, now time.Time) (domain.Loan, error) {
		return engine.Rate(loan, engine.RatingRole(req.Role), req.Stars, now)
	})
}

// RequestPayment records a borrower's claim of payment. The loan is not
// touched until the lender confirms it.
func (s *LoanService) RequestPayment(ctx context.Context, loanID string, amount decimal.Decimal) (*domain.PaymentRequest, error) {
	if !amount.IsPositive() {
		return nil, customError.NewValidationError("amount", "must be greater than 0")
	}
	if !utils.FitsScale(amount, utils.MoneyScale) {
		return nil, customError.NewValidationError("amount", "must have at most 2 decimal places")
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, customError.WrapLoanNotActive(loan.ID, string(loan.Status))
	}

	req := &domain.PaymentRequest{
		ID:        s.newID(),
		LoanID:    loanID,
		Amount:    amount,
		Status:    domain.PaymentStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.paymentRepo.Create(ctx, req); err != nil {
		return nil, dbError(err)
	}

	logger.CtxInfo(ctx, "payment requested",
		zap.String("loan_id", loanID),
		zap.String("request_id", req.ID),
		zap.String("amount", amount.String()),
	)

	return req, nil
}

func (s *LoanService) ListPaymentRequests(ctx context.Context, loanID string) ([]*domain.PaymentRequest, error) {
	if _, err := s.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}

	requests, err := s.paymentRepo.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	return requests, nil
}

// ConfirmPayment applies a pending payment request to its loan. Confirming
// an already confirmed request returns the current loan without applying it
// again.
func (s *LoanService) ConfirmPayment(ctx context.Context, requestID string) (*domain.ConfirmPaymentResponse, error) {
	ctx, span := tracing.Start(ctx, "LoanService.ConfirmPayment",
		trace.WithAttributes(attribute.String("payment_request.id", requestID)))
	defer span.End()

	req, err := s.paymentRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, recordError(span, dbError(err))
	}
	span.SetAttributes(attribute.String("loan.id", req.LoanID))

	unlock, err := s.locker.Lock(ctx, req.LoanID)
	if err != nil {
		return nil, recordError(span, err)
	}
	defer unlock()

	// re-read under the lock, a concurrent confirmation may have won
	req, err = s.paymentRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, recordError(span, dbError(err))
	}
	if req.Status != domain.PaymentStatusPending {
		return s.resolvedConfirmation(ctx, req)
	}

	loan, err := s.loanRepo.GetByID(ctx, req.LoanID)
	if err != nil {
		return nil, recordError(span, dbError(err))
	}

	now := s.now()
	updated, res, err := engine.ApplyPayment(*loan, req.Amount, now)
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.UpdateWithPayment(ctx, &updated, req.ID, now); err != nil {
		if errors.Is(err, customError.ErrPaymentAlreadyResolved) {
			current, getErr := s.paymentRepo.GetByID(ctx, requestID)
			if getErr != nil {
				return nil, dbError(getErr)
			}
			return s.resolvedConfirmation(ctx, current)
		}
		return nil, recordError(span, dbError(err))
	}
	s.invalidate(ctx, updated.ID)

	req.Status = domain.PaymentStatusConfirmed
	req.ResolvedAt = &now

	fields := []zap.Field{
		zap.String("loan_id", updated.ID),
		zap.String("request_id", req.ID),
		zap.String("amount", req.Amount.String()),
		zap.String("remaining", updated.RemainingAmount.String()),
		zap.Bool("reamortized", res.Reamortized),
	}
	if res.PaidInstallment > 0 {
		fields = append(fields, zap.Int("paid_installment", res.PaidInstallment))
	}
	logger.CtxInfo(ctx, "payment confirmed", fields...)
	if updated.Status == domain.LoanStatusClosed {
		logger.CtxInfo(ctx, "loan closed", zap.String("loan_id", updated.ID), zap.Int("settled", res.Settled))
	}

	return &domain.ConfirmPaymentResponse{Request: req, Loan: &updated}, nil
}

func (s *LoanService) resolvedConfirmation(ctx context.Context, req *domain.PaymentRequest) (*domain.ConfirmPaymentResponse, error) {
	if req.Status != domain.PaymentStatusConfirmed {
		return nil, customError.WrapPaymentAlreadyResolved(req.ID, string(req.Status))
	}

	loan, err := s.loanRepo.GetByID(ctx, req.LoanID)
	if err != nil {
		return nil, dbError(err)
	}
	return &domain.ConfirmPaymentResponse{Request: req, Loan: loan}, nil
}

// RejectPayment discards a pending payment request
func (s *LoanService) RejectPayment(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	req, err := s.paymentRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, dbError(err)
	}
	if req.Status != domain.PaymentStatusPending {
		return nil, customError.WrapPaymentAlreadyResolved(req.ID, string(req.Status))
	}

	now := s.now()
	if err := s.paymentRepo.Resolve(ctx, requestID, domain.PaymentStatusRejected, now); err != nil {
		if errors.Is(err, customError.ErrPaymentAlreadyResolved) {
			return nil, customError.WrapPaymentAlreadyResolved(req.ID, "resolved")
		}
		return nil, dbError(err)
	}

	req.Status = domain.PaymentStatusRejected
	req.ResolvedAt = &now
	logger.CtxInfo(ctx, "payment rejected", zap.String("loan_id", req.LoanID), zap.String("request_id", req.ID))

	return req, nil
}

// Quote previews a simple-interest loan without storing anything
func (s *LoanService) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResponse, error) {
	quote, err := engine.Quote(req)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// MarkOverdue flags past-due installments of every active loan and returns
// how many installments changed. A failing loan does not stop the sweep.
func (s *LoanService) MarkOverdue(ctx context.Context) (int, error) {
	ctx, span := tracing.Start(ctx, "LoanService.MarkOverdue")
	defer span.End()

	loans, err := s.loanRepo.List(ctx, domain.LoanStatusActive)
	if err != nil {
		return 0, recordError(span, dbError(err))
	}

	marked := 0
	var errs []error
	for _, loan := range loans {
		if _, n := engine.MarkOverdue(*loan, s.now()); n == 0 {
			continue
		}

		n := 0
		_, err := s.mutate(ctx, loan.ID, "mark_overdue", func(current domain.Loan, now time.Time) (domain.Loan, error) {
			var out domain.Loan
			out, n = engine.MarkOverdue(current, now)
			return out, nil
		})
		if err != nil {
			logger.CtxError(ctx, "overdue sweep failed for loan", err, zap.String("loan_id", loan.ID))
			errs = append(errs, err)
			continue
		}
		marked += n
	}

	span.SetAttributes(attribute.Int("installments.marked", marked))
	return marked, errors.Join(errs...)
}

// UpcomingReminders lists installments of active loans due within days
func (s *LoanService) UpcomingReminders(ctx context.Context, days int) ([]domain.Reminder, error) {
	if days < 0 {
		return nil, customError.NewValidationError("days", "must not be negative")
	}

	loans, err := s.loanRepo.List(ctx, domain.LoanStatusActive)
	if err != nil {
		return nil, dbError(err)
	}

	now := s.now()
	reminders := []domain.Reminder{}
	for _, loan := range loans {
		reminders = append(reminders, engine.DueWithin(*loan, now, days)...)
	}
	return reminders, nil
}

// mutate runs fn against the freshest stored loan while holding the loan
// lock, then persists the result.
func (s *LoanService) mutate(ctx context.Context, loanID, op string, fn func(domain.Loan, time.Time) (domain.Loan, error)) (*domain.Loan, error) {
	ctx, span := tracing.Start(ctx, "LoanService."+op, trace.WithAttributes(attribute.String("loan.id", loanID)))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, loanID)
	if err != nil {
		return nil, recordError(span, err)
	}
	defer unlock()

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, recordError(span, dbError(err))
	}

	updated, err := fn(*loan, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.Update(ctx, &updated); err != nil {
		return nil, recordError(span, dbError(err))
	}
	s.invalidate(ctx, loanID)

	logger.CtxInfo(ctx, "loan updated",
		zap.String("loan_id", loanID),
		zap.String("operation", op),
		zap.String("from", string(loan.Status)),
		zap.String("to", string(updated.Status)),
	)

	return &updated, nil
}

func (s *LoanService) cacheLoan(ctx context.Context, loan *domain.Loan) {
	if err := s.cache.Set(ctx, loan); err != nil {
		logger.CtxWarn(ctx, "loan cache write failed", zap.String("loan_id", loan.ID), zap.Error(err))
	}
}

func (s *LoanService) invalidate(ctx context.Context, loanID string) {
	if err := s.cache.Invalidate(ctx, loanID); err != nil {
		logger.CtxWarn(ctx, "loan cache invalidation failed", zap.String("loan_id", loanID), zap.Error(err))
	}
}

// dbError keeps business errors from the repository as they are and wraps
// anything else as a database failure.
func dbError(err error) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
