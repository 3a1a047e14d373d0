package controllers

import (
	"net/http"
	"time"

	"github.com/uneedslabs/uneeds-backend/api/responses"
	"github.com/uneedslabs/uneeds-backend/api/validators"
	"github.com/uneedslabs/uneeds-backend/internal/disputes"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
)

type alertView struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	RaisedBy  string    `json:"raised_by"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func newAlertView(row *models.DisputeAlert) alertView {
	return alertView{
		ID:        row.ID.String(),
		RequestID: row.RequestID.String(),
		RaisedBy:  row.RaisedBy.String(),
		Message:   row.Message,
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt,
	}
}

// ListAlerts handles GET /admin/alerts. Pass unread=true to hide dismissed
// alerts.
func ListAlerts(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unreadOnly := validators.ParseQueryBool(r, "unread")
		rows, next, err := svc.List(r.Context(), unreadOnly, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]alertView, 0, len(rows))
		for i := range rows {
			views = append(views, newAlertView(&rows[i]))
		}

		payload := map[string]any{"alerts": views}
		if next != "" {
			payload["next_cursor"] = next
		}
		responses.WriteSuccess(w, payload)
	}
}

// DismissAlert handles POST /admin/alerts/{alertId}/dismiss. Dismissing only
// marks the alert read; the underlying dispute still needs resolution.
func DismissAlert(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertID, err := validators.ParseURLUUID(r, "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Dismiss(r.Context(), alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}

// ClearAlerts handles POST /admin/alerts/clear.
func ClearAlerts(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cleared, err := svc.ClearAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"cleared": cleared})
	}
}
