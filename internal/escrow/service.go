package escrow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/internal/ledger"
	"github.com/uneedslabs/uneeds-backend/internal/requests"
	"github.com/uneedslabs/uneeds-backend/internal/users"
	"github.com/uneedslabs/uneeds-backend/pkg/config"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
	"github.com/uneedslabs/uneeds-backend/pkg/metrics"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

// TxRunner runs a function inside a single database transaction. Every
// escrow command uses one so the request row and its ledger entries commit
// or roll back together.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AlertRecorder files a dispute alert inside the command's transaction.
type AlertRecorder interface {
	RaiseInTx(ctx context.Context, tx *gorm.DB, requestID, raisedBy uuid.UUID, message string) error
}

// Service is the escrow command engine. All money movement and every
// request lifecycle change goes through here.
type Service interface {
	CreateRequest(ctx context.Context, actor Actor, input CreateRequestInput) (*models.DeliveryRequest, error)
	Accept(ctx context.Context, actor Actor, requestID uuid.UUID, input AcceptInput) (*models.DeliveryRequest, error)
	MarkPickedUp(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.DeliveryRequest, error)
	MarkDelivered(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.DeliveryRequest, error)
	Complete(ctx context.Context, actor Actor, requestID uuid.UUID, otp string) (*models.DeliveryRequest, error)
	Cancel(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.DeliveryRequest, error)
	RaiseDispute(ctx context.Context, actor Actor, requestID uuid.UUID, message string) (*models.DeliveryRequest, error)
	ResolveDispute(ctx context.Context, actor Actor, requestID uuid.UUID, outcome enums.RequestStatus) (*models.DeliveryRequest, error)
	Get(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.DeliveryRequest, error)
	List(ctx context.Context, actor Actor, opts ListOptions) ([]models.DeliveryRequest, string, error)
}

// CreateRequestInput carries everything a hosteler submits for a new run.
type CreateRequestInput struct {
	Description string
	TipMinor    int64
	Items       []ItemInput
}

// ItemInput is one requested line before pricing.
type ItemInput struct {
	Name           string
	Quantity       int
	UnitPriceMinor int64
}

// AcceptInput carries the helper's acceptance details.
type AcceptInput struct {
	EstimatedDeliveryTime *string
}

// ListOptions scopes a request listing for the calling actor.
type ListOptions struct {
	Status     enums.RequestStatus
	Assigned   bool
	Pagination pagination.Params
}

type service struct {
	tx              TxRunner
	requests        requests.Repository
	ledger          ledger.Service
	users           users.Repository
	alerts          AlertRecorder
	pricer          Pricer
	platformAccount uuid.UUID
	log             *logger.Logger
	metrics         *metrics.CommandMetrics
}

// Deps bundles the collaborators the escrow engine needs.
type Deps struct {
	Tx       TxRunner
	Requests requests.Repository
	Ledger   ledger.Service
	Users    users.Repository
	Alerts   AlertRecorder
	Escrow   config.EscrowConfig
	Logger   *logger.Logger
	Metrics  *metrics.CommandMetrics
}

// NewService wires the escrow command engine.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Requests == nil {
		return nil, fmt.Errorf("request repository required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if deps.Alerts == nil {
		return nil, fmt.Errorf("alert recorder required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	platform := deps.Escrow.PlatformAccountUUID()
	if platform == uuid.Nil {
		return nil, fmt.Errorf("platform account id required")
	}
	return &service{
		tx:              deps.Tx,
		requests:        deps.Requests,
		ledger:          deps.Ledger,
		users:           deps.Users,
		alerts:          deps.Alerts,
		pricer:          NewPricer(deps.Escrow.FeeRateDecimal(), deps.Escrow.HelperShareDecimal()),
		platformAccount: platform,
		log:             deps.Logger,
		metrics:         deps.Metrics,
	}, nil
}

// orderRef renders the short order handle used in ledger descriptions.
func orderRef(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func (s *service) observe(ctx context.Context, command enums.Command, start time.Time, err error) {
	s.metrics.ObserveDuration(command.String(), time.Since(start))
	if err != nil {
		code := string(apperrors.CodeInternal)
		if typed := apperrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncRejected(command.String(), code)
		return
	}
	s.metrics.IncApplied(command.String())
}

func (s *service) commandCtx(ctx context.Context, command enums.Command, actor Actor) context.Context {
	ctx = s.log.WithCommand(ctx, command.String())
	ctx = s.log.WithUserID(ctx, actor.UserID.String())
	return s.log.WithActorRole(ctx, actor.Role.String())
}

func (s *service) CreateRequest(ctx context.Context, actor Actor, input CreateRequestInput) (request *models.DeliveryRequest, err error) {
	ctx = s.commandCtx(ctx, enums.CommandCreateRequest, actor)
	defer func(start time.Time) { s.observe(ctx, enums.CommandCreateRequest, start, err) }(time.Now())

	if err = authorize(enums.CommandCreateRequest, actor, nil); err != nil {
		return nil, err
	}

	id := uuid.New()
	items := make([]models.RequestItem, 0, len(input.Items))
	for i, item := range input.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "item name is required")
		}
		items = append(items, models.RequestItem{
			ID:             uuid.New(),
			RequestID:      id,
			Position:       i,
			Name:           name,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
		})
	}

	quote, err := s.pricer.QuoteItems(items, input.TipMinor)
	if err != nil {
		return nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "generating delivery code")
	}

	request = &models.DeliveryRequest{
		ID:                 id,
		HostelerID:         actor.UserID,
		Description:        strings.TrimSpace(input.Description),
		BaseAmountMinor:    quote.BaseAmountMinor,
		ServiceChargeMinor: quote.ServiceChargeMinor,
		TipMinor:           quote.TipMinor,
		TotalAmountMinor:   quote.TotalAmountMinor,
		Status:             enums.RequestStatusOpen,
		OTP:                otp,
		Items:              items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			UserID:      actor.UserID,
			Type:        enums.TransactionTypePayment,
			AmountMinor: quote.TotalAmountMinor,
			Description: fmt.Sprintf("Escrow locked for Order #%s", orderRef(id)),
			RequestID:   &id,
		}); err != nil {
			return err
		}
		return s.requests.WithTx(tx).Create(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithField(ctx, "request_id", id.String()), "request created, escrow locked")
	return request, nil
}

func (s *service) Accept(ctx context.Context, actor Actor, requestID uuid.UUID, input AcceptInput) (request *models.DeliveryRequest, err error) {
	ctx = s.commandCtx(ctx, enums.CommandAcceptRequest, actor)
	defer func(start time.Time) { s.observe(ctx, enums.CommandAcceptRequest, start, err) }(time.Now())

	current, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err = authorize(enums.CommandAcceptRequest, actor, current); err != nil {
		return nil, err
	}
	if err = checkTransition(current.Status, enums.RequestStatusAccepted); err != nil {
		return nil, err
	}

	helper, err := s.users.Find(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"helper_id":   actor.UserID,
		"helper_name": helper.DisplayName,
	}
	if input.EstimatedDeliveryTime != nil {
		updates["estimated_delivery_time"] = strings.TrimSpace(*input.EstimatedDeliveryTime)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.requests.WithTx(tx).UpdateStatusCAS(ctx, requestID, enums.RequestStatusOpen, enums.RequestStatusAccepted, updates)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithField(ctx, "request_id", requestID.String()), "request accepted")
	return s.requests.Find(ctx, requestID)
}

func (s *service) MarkPickedUp(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	return s.advance(ctx, enums.CommandMarkPickedUp, actor, requestID, enums.RequestStatusAccepted, enums.RequestStatusPickedUp)
}

func (s *service) MarkDelivered(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	return s.advance(ctx, enums.CommandMarkDelivered, actor, requestID, enums.RequestStatusPickedUp, enums.RequestStatusDelivered)
}

// advance handles the plain lifecycle steps that move status without money.
func (s *service) advance(ctx context.Context, command enums.Command, actor Actor, requestID uuid.UUID, from, to enums.RequestStatus) (request *models.DeliveryRequest, err error) {
	ctx = s.commandCtx(ctx, command, actor)
	defer func(start time.Time) { s.observe(ctx, command, start, err) }(time.Now())

	current, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err = authorize(command, actor, current); err != nil {
		return nil, err
	}
	if err = checkTransition(current.Status, to); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.requests.WithTx(tx).UpdateStatusCAS(ctx, requestID, from, to, nil)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithField(ctx, "request_id", requestID.String()), "request advanced to "+to.String())
	return s.requests.Find(ctx, requestID)
}

func (s *service) Complete(ctx context.Context, actor Actor, requestID uuid.UUID, otp string) (request *models.DeliveryRequest, err error) {
	ctx = s.commandCtx(ctx, enums.CommandComplete, actor)
	defer func(start time.Time) { s.observe(ctx, enums.CommandComplete, start, err) }(time.Now())

	current, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err = authorize(enums.CommandComplete, actor, current); err != nil {
		return nil, err
	}
	if current.PaymentReleased {
		return nil, apperrors.New(apperrors.CodeAlreadySettled, "payout already released")
	}
	if current.Status != enums.RequestStatusDelivered {
		if current.Status.IsTerminal() {
			return nil, apperrors.New(apperrors.CodeAlreadySettled, "request already settled")
		}
		return nil, apperrors.New(apperrors.CodeStateConflict, "request is not delivered yet")
	}
	if !actor.IsStaff() && !otpMatches(current.OTP, strings.TrimSpace(otp)) {
		s.log.Warn(s.log.WithField(ctx, "request_id", requestID.String()), "delivery code mismatch")
		return nil, apperrors.New(apperrors.CodeOtpMismatch, "delivery code does not match")
	}

	if err = s.settle(ctx, current, enums.RequestStatusDelivered); err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithField(ctx, "request_id", requestID.String()), "request completed, payout released")
	return s.requests.Find(ctx, requestID)
}

// settle moves the request to completed and releases the payout exactly
// once. The CAS on the previous status plus the payment_released column
// flipped in the same UPDATE means a concurrent settle loses the race and
// surfaces as STALE_STATE before any money moves.
func (s *service) settle(ctx context.Context, current *models.DeliveryRequest, from enums.RequestStatus) error {
	if current.HelperID == nil {
		return apperrors.New(apperrors.CodeStateConflict, "request has no assigned helper")
	}
	helperID := *current.HelperID
	quote := s.pricer.QuoteStored(current)
	ref := orderRef(current.ID)
	requestID := current.ID

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.requests.WithTx(tx).UpdateStatusCAS(ctx, requestID, from, enums.RequestStatusCompleted, map[string]any{
			"payment_released": true,
		}); err != nil {
			return err
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			UserID:      helperID,
			Type:        enums.TransactionTypeDeposit,
			AmountMinor: quote.BaseAmountMinor,
			Description: fmt.Sprintf("Payout for Order #%s", ref),
			RequestID:   &requestID,
		}); err != nil {
			return err
		}
		if appreciation := quote.AppreciationMinor(); appreciation > 0 {
			if _, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
				UserID:      helperID,
				Type:        enums.TransactionTypeAppreciation,
				AmountMinor: appreciation,
				Description: fmt.Sprintf("Appreciation for Order #%s", ref),
				RequestID:   &requestID,
			}); err != nil {
				return err
			}
		}
		if quote.PlatformShareMinor > 0 {
			if _, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
				UserID:      s.platformAccount,
				Type:        enums.TransactionTypeDeposit,
				AmountMinor: quote.PlatformShareMinor,
				Description: fmt.Sprintf("Platform fee for Order #%s", ref),
				RequestID:   &requestID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.AddPayout(quote.HelperPayoutMinor())
	return nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, requestID uuid.UUID) (request *models.DeliveryRequest, err error) {
	ctx = s.commandCtx(ctx, enums.CommandCancel, actor)
	defer func(start time.Time) { s.observe(ctx, enums.CommandCancel, start, err) }(time.Now())

	current, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err = authorize(enums.CommandCancel, actor, current); err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, apperrors.New(apperrors.CodeAlreadySettled, "request already settled")
	}
	if current.Status == enums.RequestStatusDisputed && !actor.IsStaff() {
		return nil, apperrors.New(apperrors.CodeStateConflict, "disputed requests settle via resolution")
	}

	if err = s.refundAndCancel(ctx, current, current.Status); err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithField(ctx, "request_id", requestID.String()), "request cancelled, escrow refunded")
	return s.requests.Find(ctx, requestID)
}

// refundAndCancel releases the escrow back to the hosteler. The CAS flips
// payment_released together with the status, same as settle, so a refund is
// marked settled in the one UPDATE that wins the race.
func (s *service) refundAndCancel(ctx context.Context, current *models.DeliveryRequest, from enums.RequestStatus) error {
	requestID := current.ID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.requests.WithTx(tx).UpdateStatusCAS(ctx, requestID, from, enums.RequestStatusCancelled, map[string]any{
			"payment_released": true,
		}); err != nil {
			return err
		}
		_, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			UserID:      current.HostelerID,
			Type:        enums.TransactionTypeRefund,
			AmountMinor: current.TotalAmountMinor,
			Description: fmt.Sprintf("Refund for Order #%s", orderRef(requestID)),
			RequestID:   &requestID,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.AddRefund(current.TotalAmountMinor)
	return nil
}

func (s *service) RaiseDispute(ctx context.Context, actor Actor, requestID uuid.UUID, message string) (request *models.DeliveryRequest, err error) {
	ctx = s.commandCtx(ctx, enums.CommandRaiseDispute, actor)
	defer func(start time.Time) { s.observe(ctx, enums.CommandRaiseDispute, start, err) }(time.Now())

	current, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err = authorize(enums.CommandRaiseDispute, actor, current); err != nil {
		return nil, err
	}
	if err = checkTransition(current.Status, enums.RequestStatusDisputed); err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "dispute message is required")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.requests.WithTx(tx).UpdateStatusCAS(ctx, requestID, current.Status, enums.RequestStatusDisputed, nil); err != nil {
			return err
		}
		return s.alerts.RaiseInTx(ctx, tx, requestID, actor.UserID, message)
	})
	if err != nil {
		return nil, err
	}

	s.log.Warn(s.log.WithField(ctx, "request_id", requestID.String()), "dispute raised")
	return s.requests.Find(ctx, requestID)
}

func (s *service) ResolveDispute(ctx context.Context, actor Actor, requestID uuid.UUID, outcome enums.RequestStatus) (request *models.DeliveryRequest, err error) {
	ctx = s.commandCtx(ctx, enums.CommandResolveDispute, actor)
	defer func(start time.Time) { s.observe(ctx, enums.CommandResolveDispute, start, err) }(time.Now())

	if outcome != enums.RequestStatusCompleted && outcome != enums.RequestStatusCancelled {
		return nil, apperrors.New(apperrors.CodeValidation, "resolution outcome must be completed or cancelled")
	}

	current, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err = authorize(enums.CommandResolveDispute, actor, current); err != nil {
		return nil, err
	}
	if current.Status != enums.RequestStatusDisputed {
		if current.Status.IsTerminal() {
			return nil, apperrors.New(apperrors.CodeAlreadySettled, "request already settled")
		}
		return nil, apperrors.New(apperrors.CodeStateConflict, "request is not disputed")
	}
	if current.PaymentReleased {
		return nil, apperrors.New(apperrors.CodeAlreadySettled, "payout already released")
	}

	if outcome == enums.RequestStatusCompleted {
		err = s.settle(ctx, current, enums.RequestStatusDisputed)
	} else {
		err = s.refundAndCancel(ctx, current, enums.RequestStatusDisputed)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"request_id": requestID.String(),
		"outcome":    outcome.String(),
	}), "dispute resolved")
	return s.requests.Find(ctx, requestID)
}

func (s *service) Get(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	current, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, current) {
		return nil, apperrors.New(apperrors.CodeForbidden, "not a party to this request")
	}
	return current, nil
}

// canView gates the detail surface: owner, assigned helper, staff, plus any
// helper browsing the open board.
func canView(actor Actor, request *models.DeliveryRequest) bool {
	if actor.IsStaff() {
		return true
	}
	if request.HostelerID == actor.UserID {
		return true
	}
	if request.HelperID != nil && *request.HelperID == actor.UserID {
		return true
	}
	return actor.Role == enums.UserRoleHelper && request.Status == enums.RequestStatusOpen
}

func (s *service) List(ctx context.Context, actor Actor, opts ListOptions) ([]models.DeliveryRequest, string, error) {
	filter := requests.ListFilter{Status: opts.Status}

	switch actor.Role {
	case enums.UserRoleHosteler:
		filter.HostelerID = actor.UserID
	case enums.UserRoleHelper:
		if opts.Assigned {
			filter.HelperID = actor.UserID
		} else if filter.Status == "" {
			// helpers browse the open board by default
			filter.Status = enums.RequestStatusOpen
		} else if filter.Status != enums.RequestStatusOpen {
			filter.HelperID = actor.UserID
		}
	case enums.UserRoleAgent, enums.UserRoleAdmin:
		// staff see everything
	default:
		return nil, "", apperrors.New(apperrors.CodeForbidden, "unknown role")
	}

	return s.requests.List(ctx, filter, opts.Pagination)
}
