package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	bookingserrors "serenity/internal/bookings/errors"
	"serenity/internal/bookings/otp"
	"serenity/internal/bookings/policy"
	"serenity/internal/bookings/repository"
	"serenity/internal/bookings/validator"
	"serenity/internal/catalog"
	"serenity/internal/directory"
	"serenity/internal/loyalty"
	"serenity/internal/notify"
	"serenity/internal/pricing"
	"serenity/pkg/config"
	apperrors "serenity/pkg/errors"
	"serenity/pkg/model"
	"serenity/pkg/sanitizer"
)

// transitions is the lifecycle table. Cancellation is absent on purpose:
// it only ever happens through Cancel, which applies the cancellation
// policy first.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:    {model.StatusConfirmed, model.StatusCheckedIn},
	model.StatusConfirmed:  {model.StatusCheckedIn, model.StatusNoShow},
	model.StatusCheckedIn:  {model.StatusInProgress, model.StatusNoShow},
	model.StatusInProgress: {model.StatusCompleted, model.StatusNoShow},
	model.StatusCompleted:  {model.StatusRefunded},
}

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest, memberID string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, f repository.Filter, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, req *model.StatusUpdateRequest, actor string) (*model.Booking, error)
	Cancel(ctx context.Context, id string, req *model.CancelRequest, actor string) (*model.Booking, error)
	RequestOtp(ctx context.Context, id string) (*model.Booking, error)
	VerifyOtp(ctx context.Context, id string, req *model.VerifyOtpRequest) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	catalog   catalog.ServiceCatalog
	employees directory.EmployeeDirectory
	users     directory.UserDirectory
	ledger    loyalty.Ledger
	guard     *otp.Guard
	policy    *policy.CancellationPolicy
	notifier  notify.Sender
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	bookingValidator *validator.BookingValidator,
	serviceCatalog catalog.ServiceCatalog,
	employees directory.EmployeeDirectory,
	users directory.UserDirectory,
	ledger loyalty.Ledger,
	guard *otp.Guard,
	cancellationPolicy *policy.CancellationPolicy,
	notifier notify.Sender,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: bookingValidator,
		catalog:   serviceCatalog,
		employees: employees,
		users:     users,
		ledger:    ledger,
		guard:     guard,
		policy:    cancellationPolicy,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest, memberID string) (*model.Booking, error) {
	if req.GuestInfo != nil {
		sanitizer.SanitizeGuestInfo(req.GuestInfo)
	}

	isMember := memberID != ""
	if err := s.validator.ValidateCreate(req, !isMember); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	var user *model.User
	if isMember {
		var err error
		user, err = s.resolveMember(ctx, memberID)
		if err != nil {
			return nil, err
		}
	}

	services, err := s.catalog.Resolve(ctx, req.ServiceIDs)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	if req.Employee != "" {
		exists, err := s.employees.Exists(ctx, req.Employee)
		if err != nil {
			if errors.Is(err, directory.ErrInvalidID) {
				return nil, apperrors.InvalidInput("Invalid employee ID format")
			}
			return nil, apperrors.Internal("Failed to check employee", err)
		}
		if !exists {
			return nil, apperrors.NotFoundWithID("Employee", req.Employee)
		}
	}

	quote := pricing.Aggregate(services)

	// Booking dates are anchored at UTC midnight so the stored instant
	// survives the database round trip unchanged.
	day, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid booking date")
	}

	booking := &model.Booking{
		BookingType:       model.BookingTypeGuest,
		GuestInfo:         req.GuestInfo,
		Services:          quote.Lines,
		Employee:          req.Employee,
		IsRandomEmployee:  req.Employee == "" || req.IsRandomEmployee,
		BookingDate:       day,
		BookingTime:       req.BookingTime,
		EstimatedDuration: quote.EstimatedDuration,
		Status:            model.StatusPending,
		StatusHistory: []model.StatusChange{{
			Status:    model.StatusPending,
			Timestamp: s.now(),
			Note:      "booking created",
		}},
		TotalAmount:    quote.TotalAmount,
		DiscountAmount: quote.DiscountAmount,
		FinalAmount:    quote.FinalAmount,
		PaymentStatus:  model.PaymentUnpaid,
		PaymentMethod:  req.PaymentMethod,
		CustomerNote:   sanitizer.NormalizeNote(req.CustomerNote),
		BookingSource:  req.BookingSource,
	}
	if booking.BookingSource == "" {
		booking.BookingSource = "web"
	}
	if isMember {
		booking.BookingType = model.BookingTypeMember
		booking.Customer = user.ID
		booking.GuestInfo = nil
	}

	if err := s.insertWithFreshCode(ctx, booking); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"booking_code", booking.BookingCode,
		"booking_type", booking.BookingType,
		"final_amount", booking.FinalAmount,
	)

	if err := s.catalog.RecordBooked(ctx, req.ServiceIDs); err != nil {
		s.cfg.Log.Warn("Failed to record service booking counters", "booking_code", booking.BookingCode, "error", err)
	}
	if booking.Employee != "" {
		if err := s.employees.RecordBookingOutcome(ctx, booking.Employee, directory.OutcomeBooked, 0, s.now()); err != nil {
			s.cfg.Log.Warn("Failed to record employee booking", "employee", booking.Employee, "error", err)
		}
	}

	if booking.BookingType == model.BookingTypeGuest {
		code, _, err := s.guard.Issue(ctx, booking)
		if err != nil {
			s.cfg.Log.Error("Failed to issue verification code", "booking_code", booking.BookingCode, "error", err)
		} else {
			s.notify(ctx, booking, notify.TemplateOtpCode, map[string]any{"code": code})
		}
	}

	return booking, nil
}

// insertWithFreshCode allocates a booking code and inserts the document.
// The unique index on booking_code arbitrates collisions: on a duplicate
// the insert is retried with a new code.
func (s *bookingService) insertWithFreshCode(ctx context.Context, booking *model.Booking) error {
	for attempt := 1; attempt <= s.cfg.BookingCodeAttempts; attempt++ {
		code, err := generateBookingCode(s.now())
		if err != nil {
			return apperrors.Internal("Failed to generate booking code", err)
		}
		booking.BookingCode = code

		err = s.repo.Insert(ctx, booking)
		if err == nil {
			return nil
		}
		if errors.Is(err, bookingserrors.ErrDuplicateCode) {
			s.cfg.Log.Warn("Booking code collision, retrying",
				"booking_code", code,
				"attempt", attempt,
			)
			continue
		}
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	return apperrors.Conflict("could not allocate a unique booking code, please retry")
}

// generateBookingCode builds a "BK" + yyyymmdd + 4 random digits code.
func generateBookingCode(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BK%s%04d", now.Format("20060102"), n.Int64()), nil
}

// GetByID accepts either a document ID or a booking code. Codes always
// start with the BK prefix, which no ObjectID hex can.
func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if strings.HasPrefix(id, "BK") {
		booking, err := s.repo.FindByCode(ctx, id)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return nil, apperrors.NotFoundWithID("Booking", id)
			}
			return nil, apperrors.Internal("Failed to retrieve booking", err)
		}
		return booking, nil
	}

	return s.find(ctx, id)
}

func (s *bookingService) find(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, f repository.Filter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, f)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, f, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, req *model.StatusUpdateRequest, actor string) (*model.Booking, error) {
	if err := s.validator.ValidateStatusUpdate(req); err != nil {
		s.cfg.Log.Warn("Status update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// Repeating the current status is an idempotent no-op.
	if booking.Status == req.Status {
		return booking, nil
	}

	if !transitionAllowed(booking.Status, req.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change status from %s to %s", booking.Status, req.Status))
	}

	change := model.StatusChange{
		Status:    req.Status,
		Timestamp: s.now(),
		Note:      req.Note,
		UpdatedBy: actor,
	}

	ok, err := s.repo.UpdateStatus(ctx, booking.ID, booking.Status, req.Status, change)
	if err != nil {
		return nil, apperrors.Internal("Failed to update booking status", err)
	}
	if !ok {
		return nil, apperrors.Conflict("booking was modified concurrently, please retry")
	}

	s.cfg.Log.Info("Booking status updated",
		"id", booking.ID,
		"booking_code", booking.BookingCode,
		"from", booking.Status,
		"to", req.Status,
		"updated_by", actor,
	)

	s.applyTransitionEffects(ctx, booking, req.Status)

	return s.find(ctx, booking.ID)
}

func transitionAllowed(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// applyTransitionEffects runs the side effects a successful transition
// carries. Failures here are logged and never surfaced: the status change
// itself has already committed.
func (s *bookingService) applyTransitionEffects(ctx context.Context, booking *model.Booking, to model.BookingStatus) {
	switch to {
	case model.StatusConfirmed:
		s.notify(ctx, booking, notify.TemplateBookingConfirmed, nil)

	case model.StatusNoShow:
		if booking.Employee != "" {
			if err := s.employees.RecordBookingOutcome(ctx, booking.Employee, directory.OutcomeCancelled, 0, s.now()); err != nil {
				s.cfg.Log.Warn("Failed to record employee no-show", "employee", booking.Employee, "error", err)
			}
		}

	case model.StatusCompleted:
		s.applyCompletionEffects(ctx, booking)
	}
}

// applyCompletionEffects awards points and bumps catalog and employee
// counters. The points_awarded flag on the booking is the exactly-once
// latch: only the caller that flips it runs the effects, so a retried
// completion can never double-award.
func (s *bookingService) applyCompletionEffects(ctx context.Context, booking *model.Booking) {
	points := int64(0)
	if booking.BookingType == model.BookingTypeMember {
		points = loyalty.EarnedPoints(booking.FinalAmount)
	}

	awarded, err := s.repo.MarkPointsAwarded(ctx, booking.ID, points)
	if err != nil {
		s.cfg.Log.Error("Failed to mark points awarded", "booking_code", booking.BookingCode, "error", err)
		return
	}
	if !awarded {
		s.cfg.Log.Info("Completion effects already applied", "booking_code", booking.BookingCode)
		return
	}

	if booking.BookingType == model.BookingTypeMember && booking.Customer != "" {
		if points > 0 {
			if _, err := s.ledger.AddPoints(ctx, booking.Customer, points); err != nil {
				s.cfg.Log.Error("Failed to award loyalty points",
					"booking_code", booking.BookingCode,
					"customer", booking.Customer,
					"points", points,
					"error", err,
				)
			}
		}
		if err := s.ledger.RecordCompletedBooking(ctx, booking.Customer, booking.FinalAmount, s.now()); err != nil {
			s.cfg.Log.Warn("Failed to record completed booking on user", "customer", booking.Customer, "error", err)
		}
	}

	if err := s.catalog.RecordCompleted(ctx, booking.ServiceIDs()); err != nil {
		s.cfg.Log.Warn("Failed to record service completion counters", "booking_code", booking.BookingCode, "error", err)
	}
	if booking.Employee != "" {
		if err := s.employees.RecordBookingOutcome(ctx, booking.Employee, directory.OutcomeCompleted, booking.FinalAmount, s.now()); err != nil {
			s.cfg.Log.Warn("Failed to record employee completion", "employee", booking.Employee, "error", err)
		}
	}

	s.notify(ctx, booking, notify.TemplateBookingCompleted, map[string]any{"points_earned": points})
}

func (s *bookingService) Cancel(ctx context.Context, id string, req *model.CancelRequest, actor string) (*model.Booking, error) {
	if err := s.validator.ValidateCancel(req); err != nil {
		s.cfg.Log.Warn("Cancel validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid cancellation request", map[string]any{"error": err.Error()})
	}

	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Evaluate(booking); err != nil {
		return nil, err
	}

	fee := s.policy.Fee(booking)

	ok, err := s.repo.RecordCancellation(ctx, booking.ID, booking.Status, fee, req.Reason, actor, s.now())
	if err != nil {
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}
	if !ok {
		return nil, apperrors.Conflict("booking was modified concurrently, please retry")
	}

	s.cfg.Log.Info("Booking cancelled",
		"id", booking.ID,
		"booking_code", booking.BookingCode,
		"fee", fee,
		"cancelled_by", actor,
	)

	if booking.PointsUsed > 0 && booking.Customer != "" {
		if _, err := s.ledger.AddPoints(ctx, booking.Customer, booking.PointsUsed); err != nil {
			s.cfg.Log.Error("Failed to refund loyalty points",
				"booking_code", booking.BookingCode,
				"customer", booking.Customer,
				"points", booking.PointsUsed,
				"error", err,
			)
		}
	}
	if booking.Employee != "" {
		if err := s.employees.RecordBookingOutcome(ctx, booking.Employee, directory.OutcomeCancelled, 0, s.now()); err != nil {
			s.cfg.Log.Warn("Failed to record employee cancellation", "employee", booking.Employee, "error", err)
		}
	}

	s.notify(ctx, booking, notify.TemplateBookingCancelled, map[string]any{"fee": fee})

	return s.find(ctx, booking.ID)
}

func (s *bookingService) RequestOtp(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	code, issued, err := s.guard.Issue(ctx, booking)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Verification code requested",
		"booking_code", booking.BookingCode,
		"fresh", issued,
	)
	s.notify(ctx, booking, notify.TemplateOtpCode, map[string]any{"code": code})

	if issued {
		return s.find(ctx, booking.ID)
	}
	return booking, nil
}

func (s *bookingService) VerifyOtp(ctx context.Context, id string, req *model.VerifyOtpRequest) (*model.Booking, error) {
	if err := s.validator.ValidateVerifyOtp(req); err != nil {
		s.cfg.Log.Warn("OTP verification validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid verification request", map[string]any{"error": err.Error()})
	}

	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	alreadyVerified := booking.IsOtpVerified
	if err := s.guard.Verify(ctx, booking, req.Code); err != nil {
		return nil, err
	}

	updated, err := s.find(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	if !alreadyVerified {
		s.cfg.Log.Info("Booking verified", "booking_code", updated.BookingCode)
		s.notify(ctx, updated, notify.TemplateBookingConfirmed, nil)
	}

	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to delete booking", err)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *bookingService) resolveMember(ctx context.Context, memberID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, memberID)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, directory.ErrInvalidID) {
		// Not an ObjectID; fall back to the messaging-platform identity.
		user, err = s.users.FindByExternalID(ctx, memberID)
		if err == nil {
			return user, nil
		}
	}
	if errors.Is(err, directory.ErrUserNotFound) {
		return nil, apperrors.NotFoundWithID("User", memberID)
	}
	return nil, apperrors.Internal("Failed to resolve member", err)
}

func mapCatalogError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrInvalidServiceID):
		return apperrors.InvalidInput(err.Error())
	case errors.Is(err, catalog.ErrServiceNotFound):
		return apperrors.NotFound(err.Error())
	case errors.Is(err, catalog.ErrServiceUnavailable):
		return apperrors.Conflict(err.Error())
	default:
		return apperrors.Internal("Failed to resolve services", err)
	}
}

func (s *bookingService) notify(ctx context.Context, booking *model.Booking, tmpl notify.Template, data map[string]any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, booking, tmpl, data); err != nil {
		s.cfg.Log.Warn("Failed to send notification",
			"booking_code", booking.BookingCode,
			"template", tmpl,
			"error", err,
		)
	}
}
