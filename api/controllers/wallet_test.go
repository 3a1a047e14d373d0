package controllers

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
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

type stubWalletService struct {
	adjust       func(ctx context.Context, actor escrow.Actor, userID uuid.UUID, txType enums.TransactionType, amountMinor int64) (*models.WalletTransaction, error)
	balance      func(ctx context.Context, userID uuid.UUID) (int64, error)
	transactions func(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error)
}

func (s *stubWalletService) Adjust(ctx context.Context, actor escrow.Actor, userID uuid.UUID, txType enums.TransactionType, amountMinor int64) (*models.WalletTransaction, error) {
	if s.adjust != nil {
		return s.adjust(ctx, actor, userID, txType, amountMinor)
	}
	panic("unimplemented")
}

func (s *stubWalletService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.balance != nil {
		return s.balance(ctx, userID)
	}
	panic("unimplemented")
}

func (s *stubWalletService) Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	if s.transactions != nil {
		return s.transactions(ctx, userID, params)
	}
	panic("unimplemented")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func TestWalletBalanceUsesActor(t *testing.T) {
	userID := uuid.New()
	svc := &stubWalletService{
		balance: func(ctx context.Context, id uuid.UUID) (int64, error) {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			return 26000, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), userID, enums.UserRoleHosteler))
	resp := httptest.NewRecorder()
	WalletBalance(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["balance_minor"] != 26000 {
		t.Fatalf("unexpected balance %d", envelope.Data["balance_minor"])
	}
}

func TestWalletTransactionsPaginates(t *testing.T) {
	userID := uuid.New()
	svc := &stubWalletService{
		transactions: func(ctx context.Context, id uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
			if params.Limit != 10 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return []models.WalletTransaction{
				{ID: uuid.New(), UserID: id, Type: enums.TransactionTypePayment, AmountMinor: 24000, Description: "Escrow locked for Order #AB12CD34"},
			}, "next-token", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/transactions?limit=10", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), userID, enums.UserRoleHosteler))
	resp := httptest.NewRecorder()
	WalletTransactions(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Transactions []transactionView `json:"transactions"`
			NextCursor   string            `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Transactions) != 1 || envelope.Data.NextCursor != "next-token" {
		t.Fatalf("unexpected page: %+v", envelope.Data)
	}
}

func TestAdjustWalletMapsBody(t *testing.T) {
	adminID := uuid.New()
	targetID := uuid.New()
	svc := &stubWalletService{
		adjust: func(ctx context.Context, actor escrow.Actor, userID uuid.UUID, txType enums.TransactionType, amountMinor int64) (*models.WalletTransaction, error) {
			if actor.UserID != adminID || userID != targetID {
				t.Fatal("actor or target not mapped")
			}
			if txType != enums.TransactionTypeWithdrawal || amountMinor != 5000 {
				t.Fatalf("unexpected adjustment %s %d", txType, amountMinor)
			}
			return &models.WalletTransaction{ID: uuid.New(), UserID: userID, Type: txType, AmountMinor: amountMinor, Description: "Admin adjustment"}, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/api/v1/admin/wallets/{userId}/adjust", AdjustWallet(svc, testLogger()))

	body := `{"type":"withdrawal","amount_minor":5000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/wallets/"+targetID.String()+"/adjust", strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), adminID, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdjustWalletRejectsLedgerTypes(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/v1/admin/wallets/{userId}/adjust", AdjustWallet(&stubWalletService{}, testLogger()))

	body := `{"type":"payment","amount_minor":5000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/wallets/"+uuid.NewString()+"/adjust", strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
