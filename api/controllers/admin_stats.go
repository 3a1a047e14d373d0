package controllers

import (
	"net/http"

	"github.com/uneedslabs/uneeds-backend/api/responses"
	"github.com/uneedslabs/uneeds-backend/internal/ledger"
	"github.com/uneedslabs/uneeds-backend/internal/requests"
	"github.com/uneedslabs/uneeds-backend/pkg/config"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
)

// AdminStats handles GET /admin/stats. Revenue is read from the platform
// account's ledger balance so it always matches the per-request fee splits.
func AdminStats(repo requests.Repository, ledgerSvc ledger.Service, cfg config.EscrowConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := repo.CountByStatus(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// a deployment that has not settled a request yet may have no
		// platform wallet row; report zero revenue rather than failing
		revenue, err := ledgerSvc.Balance(r.Context(), cfg.PlatformAccountUUID())
		if err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		escrowedCharges, err := repo.SumServiceChargesByStatus(r.Context(), enums.RequestStatusDisputed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var total int64
		byStatus := make(map[string]int64, len(counts))
		for status, count := range counts {
			byStatus[status.String()] = count
			total += count
		}
		active := total - counts[enums.RequestStatusCompleted] - counts[enums.RequestStatusCancelled]

		responses.WriteSuccess(w, map[string]any{
			"requests": map[string]any{
				"total":     total,
				"active":    active,
				"by_status": byStatus,
			},
			"revenue_minor":                  revenue,
			"disputed_service_charges_minor": escrowedCharges,
		})
	}
}
