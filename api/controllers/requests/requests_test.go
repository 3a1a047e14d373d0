package requests

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uneedslabs/uneeds-backend/api/middleware"
	"github.com/uneedslabs/uneeds-backend/internal/escrow"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
)

type stubService struct {
	create   func(ctx context.Context, actor escrow.Actor, input escrow.CreateRequestInput) (*models.DeliveryRequest, error)
	get      func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error)
	complete func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, otp string) (*models.DeliveryRequest, error)
	resolve  func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, outcome enums.RequestStatus) (*models.DeliveryRequest, error)
}

func (s *stubService) CreateRequest(ctx context.Context, actor escrow.Actor, input escrow.CreateRequestInput) (*models.DeliveryRequest, error) {
	if s.create != nil {
		return s.create(ctx, actor, input)
	}
	panic("unimplemented")
}

func (s *stubService) Accept(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, input escrow.AcceptInput) (*models.DeliveryRequest, error) {
	panic("unimplemented")
}

func (s *stubService) MarkPickedUp(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	panic("unimplemented")
}

func (s *stubService) MarkDelivered(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	panic("unimplemented")
}

func (s *stubService) Complete(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, otp string) (*models.DeliveryRequest, error) {
	if s.complete != nil {
		return s.complete(ctx, actor, requestID, otp)
	}
	panic("unimplemented")
}

func (s *stubService) Cancel(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	panic("unimplemented")
}

func (s *stubService) RaiseDispute(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, message string) (*models.DeliveryRequest, error) {
	panic("unimplemented")
}

func (s *stubService) ResolveDispute(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, outcome enums.RequestStatus) (*models.DeliveryRequest, error) {
	if s.resolve != nil {
		return s.resolve(ctx, actor, requestID, outcome)
	}
	panic("unimplemented")
}

func (s *stubService) Get(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	if s.get != nil {
		return s.get(ctx, actor, requestID)
	}
	panic("unimplemented")
}

func (s *stubService) List(ctx context.Context, actor escrow.Actor, opts escrow.ListOptions) ([]models.DeliveryRequest, string, error) {
	panic("unimplemented")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func sampleRequest(hostelerID uuid.UUID) *models.DeliveryRequest {
	return &models.DeliveryRequest{
		ID:                 uuid.New(),
		HostelerID:         hostelerID,
		Description:        "snacks run",
		BaseAmountMinor:    20000,
		ServiceChargeMinor: 2000,
		TipMinor:           2000,
		TotalAmountMinor:   24000,
		Status:             enums.RequestStatusOpen,
		OTP:                "4821",
		Items: []models.RequestItem{
			{Name: "maggi", Quantity: 4, UnitPriceMinor: 5000},
		},
	}
}

func withActor(r *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), userID, role))
}

func TestCreateReturnsOTPToHosteler(t *testing.T) {
	hostelerID := uuid.New()
	svc := &stubService{
		create: func(ctx context.Context, actor escrow.Actor, input escrow.CreateRequestInput) (*models.DeliveryRequest, error) {
			if actor.UserID != hostelerID {
				t.Fatalf("unexpected actor %s", actor.UserID)
			}
			if len(input.Items) != 1 || input.Items[0].Quantity != 4 {
				t.Fatalf("items not mapped: %+v", input.Items)
			}
			if input.TipMinor != 2000 {
				t.Fatalf("tip not mapped: %d", input.TipMinor)
			}
			return sampleRequest(hostelerID), nil
		},
	}

	body := `{"description":"snacks run","tip_minor":2000,"items":[{"name":"maggi","quantity":4,"unit_price_minor":5000}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(body))
	req = withActor(req, hostelerID, enums.UserRoleHosteler)
	resp := httptest.NewRecorder()
	Create(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data RequestView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OTP != "4821" {
		t.Fatalf("hosteler should see the otp, got %q", envelope.Data.OTP)
	}
	if envelope.Data.TotalAmountMinor != 24000 {
		t.Fatalf("unexpected total %d", envelope.Data.TotalAmountMinor)
	}
}

func TestCreateAcceptsZeroPriceItem(t *testing.T) {
	hostelerID := uuid.New()
	svc := &stubService{
		create: func(ctx context.Context, actor escrow.Actor, input escrow.CreateRequestInput) (*models.DeliveryRequest, error) {
			if len(input.Items) != 2 || input.Items[1].UnitPriceMinor != 0 {
				t.Fatalf("zero-price item not mapped: %+v", input.Items)
			}
			return sampleRequest(hostelerID), nil
		},
	}

	body := `{"items":[{"name":"maggi","quantity":4,"unit_price_minor":5000},{"name":"free sachet","quantity":1,"unit_price_minor":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(body))
	req = withActor(req, hostelerID, enums.UserRoleHosteler)
	resp := httptest.NewRecorder()
	Create(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc := &stubService{}
	body := `{"items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(body))
	req = withActor(req, uuid.New(), enums.UserRoleHosteler)
	resp := httptest.NewRecorder()
	Create(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateRequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	Create(&stubService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGetRedactsOTPForHelper(t *testing.T) {
	hostelerID := uuid.New()
	helperID := uuid.New()
	stored := sampleRequest(hostelerID)
	svc := &stubService{
		get: func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
			if requestID != stored.ID {
				t.Fatalf("unexpected request id %s", requestID)
			}
			return stored, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/api/v1/requests/{requestId}", Get(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/"+stored.ID.String(), nil)
	req = withActor(req, helperID, enums.UserRoleHelper)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data RequestView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OTP != "" {
		t.Fatalf("helper must not see the otp, got %q", envelope.Data.OTP)
	}
}

func TestGetShowsOTPToStaff(t *testing.T) {
	stored := sampleRequest(uuid.New())
	svc := &stubService{
		get: func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error) {
			return stored, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/api/v1/requests/{requestId}", Get(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/"+stored.ID.String(), nil)
	req = withActor(req, uuid.New(), enums.UserRoleAgent)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var envelope struct {
		Data RequestView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OTP != "4821" {
		t.Fatalf("staff should see the otp, got %q", envelope.Data.OTP)
	}
}

func TestCompleteForwardsOTP(t *testing.T) {
	helperID := uuid.New()
	stored := sampleRequest(uuid.New())
	stored.Status = enums.RequestStatusCompleted
	svc := &stubService{
		complete: func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, otp string) (*models.DeliveryRequest, error) {
			if otp != "4821" {
				t.Fatalf("otp not forwarded, got %q", otp)
			}
			if actor.UserID != helperID {
				t.Fatalf("unexpected actor %s", actor.UserID)
			}
			return stored, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/api/v1/requests/{requestId}/complete", Complete(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+stored.ID.String()+"/complete", strings.NewReader(`{"otp":"4821"}`))
	req = withActor(req, helperID, enums.UserRoleHelper)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCompleteRejectsMalformedOTP(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/v1/requests/{requestId}/complete", Complete(&stubService{}, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+uuid.NewString()+"/complete", strings.NewReader(`{"otp":"12"}`))
	req = withActor(req, uuid.New(), enums.UserRoleHelper)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestResolveDisputeValidatesOutcome(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/v1/admin/requests/{requestId}/resolve", ResolveDispute(&stubService{}, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/requests/"+uuid.NewString()+"/resolve", strings.NewReader(`{"outcome":"open"}`))
	req = withActor(req, uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestResolveDisputePassesOutcome(t *testing.T) {
	stored := sampleRequest(uuid.New())
	stored.Status = enums.RequestStatusCancelled
	svc := &stubService{
		resolve: func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID, outcome enums.RequestStatus) (*models.DeliveryRequest, error) {
			if outcome != enums.RequestStatusCancelled {
				t.Fatalf("unexpected outcome %s", outcome)
			}
			return stored, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/api/v1/admin/requests/{requestId}/resolve", ResolveDispute(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/requests/"+stored.ID.String()+"/resolve", strings.NewReader(`{"outcome":"cancelled"}`))
	req = withActor(req, uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
