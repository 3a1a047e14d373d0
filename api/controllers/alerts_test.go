package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

type stubDisputesService struct {
	list    func(ctx context.Context, unreadOnly bool, params pagination.Params) ([]models.DisputeAlert, string, error)
	dismiss func(ctx context.Context, alertID uuid.UUID) error
	clear   func(ctx context.Context) (int64, error)
}

func (s *stubDisputesService) RaiseInTx(ctx context.Context, tx *gorm.DB, requestID, raisedBy uuid.UUID, message string) error {
	panic("unimplemented")
}

func (s *stubDisputesService) List(ctx context.Context, unreadOnly bool, params pagination.Params) ([]models.DisputeAlert, string, error) {
	if s.list != nil {
		return s.list(ctx, unreadOnly, params)
	}
	return nil, "", nil
}

func (s *stubDisputesService) Dismiss(ctx context.Context, alertID uuid.UUID) error {
	if s.dismiss != nil {
		return s.dismiss(ctx, alertID)
	}
	return nil
}

func (s *stubDisputesService) ClearAll(ctx context.Context) (int64, error) {
	if s.clear != nil {
		return s.clear(ctx)
	}
	return 0, nil
}

func TestListAlertsUnreadFilter(t *testing.T) {
	svc := &stubDisputesService{
		list: func(ctx context.Context, unreadOnly bool, params pagination.Params) ([]models.DisputeAlert, string, error) {
			if !unreadOnly {
				t.Fatal("unread filter not applied")
			}
			return []models.DisputeAlert{
				{ID: uuid.New(), RequestID: uuid.New(), RaisedBy: uuid.New(), Message: "helper unreachable"},
			}, "", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/alerts?unread=true", nil)
	resp := httptest.NewRecorder()
	ListAlerts(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Alerts []alertView `json:"alerts"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Alerts) != 1 || envelope.Data.Alerts[0].Message != "helper unreachable" {
		t.Fatalf("unexpected alerts: %+v", envelope.Data.Alerts)
	}
}

func TestDismissAlertParsesID(t *testing.T) {
	alertID := uuid.New()
	dismissed := false
	svc := &stubDisputesService{
		dismiss: func(ctx context.Context, id uuid.UUID) error {
			if id != alertID {
				t.Fatalf("unexpected alert id %s", id)
			}
			dismissed = true
			return nil
		},
	}

	router := chi.NewRouter()
	router.Post("/api/v1/admin/alerts/{alertId}/dismiss", DismissAlert(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/alerts/"+alertID.String()+"/dismiss", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !dismissed {
		t.Fatal("dismiss never invoked")
	}
}

func TestClearAlertsReportsCount(t *testing.T) {
	svc := &stubDisputesService{
		clear: func(ctx context.Context) (int64, error) {
			return 7, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/alerts/clear", nil)
	resp := httptest.NewRecorder()
	ClearAlerts(svc, testLogger()).ServeHTTP(resp, req)

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["cleared"] != 7 {
		t.Fatalf("unexpected cleared count %d", envelope.Data["cleared"])
	}
}
