package controllers

import (
	"net/http"
	"time"

	"github.com/uneedslabs/uneeds-backend/api/middleware"
	"github.com/uneedslabs/uneeds-backend/api/responses"
	"github.com/uneedslabs/uneeds-backend/api/validators"
	"github.com/uneedslabs/uneeds-backend/internal/wallet"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
)

type transactionView struct {
	ID          string                `json:"id"`
	Type        enums.TransactionType `json:"type"`
	AmountMinor int64                 `json:"amount_minor"`
	Description string                `json:"description"`
	RequestID   *string               `json:"request_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

func newTransactionView(row *models.WalletTransaction) transactionView {
	view := transactionView{
		ID:          row.ID.String(),
		Type:        row.Type,
		AmountMinor: row.AmountMinor,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
	if row.RequestID != nil {
		requestID := row.RequestID.String()
		view.RequestID = &requestID
	}
	return view
}

type adjustBody struct {
	Type        string `json:"type" validate:"required,oneof=deposit withdrawal"`
	AmountMinor int64  `json:"amount_minor" validate:"required,gt=0"`
}

// WalletBalance handles GET /wallet for the authenticated user.
func WalletBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		balance, err := svc.Balance(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"balance_minor": balance})
	}
}

// WalletTransactions handles GET /wallet/transactions, newest first.
func WalletTransactions(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.Transactions(r.Context(), actor.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]transactionView, 0, len(rows))
		for i := range rows {
			views = append(views, newTransactionView(&rows[i]))
		}

		payload := map[string]any{"transactions": views}
		if next != "" {
			payload["next_cursor"] = next
		}
		responses.WriteSuccess(w, payload)
	}
}

// AdjustWallet handles POST /admin/wallets/{userId}/adjust for staff.
func AdjustWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		userID, err := validators.ParseURLUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Adjust(r.Context(), actor, userID, enums.TransactionType(body.Type), body.AmountMinor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionView(entry))
	}
}
