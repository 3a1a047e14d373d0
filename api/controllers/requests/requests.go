// Package requests exposes the delivery request lifecycle over HTTP. Every
// handler resolves the calling actor from the request context and delegates
// authorization and transition rules to the escrow service.
package requests

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/uneedslabs/uneeds-backend/api/middleware"
	"github.com/uneedslabs/uneeds-backend/api/responses"
	"github.com/uneedslabs/uneeds-backend/api/validators"
	"github.com/uneedslabs/uneeds-backend/internal/escrow"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
)

type createItemBody struct {
	Name           string `json:"name" validate:"required,max=120"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	UnitPriceMinor int64  `json:"unit_price_minor" validate:"gte=0"`
}

type createBody struct {
	Description string           `json:"description" validate:"max=500"`
	TipMinor    int64            `json:"tip_minor" validate:"gte=0"`
	Items       []createItemBody `json:"items" validate:"required,min=1,max=20,dive"`
}

type acceptBody struct {
	EstimatedDeliveryTime *string `json:"estimated_delivery_time" validate:"omitempty,max=120"`
}

type completeBody struct {
	OTP string `json:"otp" validate:"omitempty,len=4,numeric"`
}

type disputeBody struct {
	Message string `json:"message" validate:"required,max=500"`
}

type resolveBody struct {
	Outcome string `json:"outcome" validate:"required,oneof=completed cancelled"`
}

// Create handles POST /requests. The hosteler's wallet is debited for the
// full escrow total before the request becomes visible.
func Create(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		var body createBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := escrow.CreateRequestInput{
			Description: body.Description,
			TipMinor:    body.TipMinor,
			Items:       make([]escrow.ItemInput, 0, len(body.Items)),
		}
		for _, item := range body.Items {
			input.Items = append(input.Items, escrow.ItemInput{
				Name:           item.Name,
				Quantity:       item.Quantity,
				UnitPriceMinor: item.UnitPriceMinor,
			})
		}

		created, err := svc.CreateRequest(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRequestView(actor, created))
	}
}

// List handles GET /requests with role-scoped visibility.
func List(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
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

		opts := escrow.ListOptions{
			Assigned:   validators.ParseQueryBool(r, "assigned"),
			Pagination: params,
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeValidation, "invalid status filter"))
				return
			}
			opts.Status = status
		}

		rows, next, err := svc.List(r.Context(), actor, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newListView(actor, rows, next))
	}
}

// Get handles GET /requests/{requestId}.
func Get(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		requestID, err := validators.ParseURLUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.Get(r.Context(), actor, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestView(actor, found))
	}
}

// Accept handles POST /requests/{requestId}/accept.
func Accept(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		requestID, err := validators.ParseURLUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body acceptBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Accept(r.Context(), actor, requestID, escrow.AcceptInput{
			EstimatedDeliveryTime: body.EstimatedDeliveryTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestView(actor, updated))
	}
}

// MarkPickedUp handles POST /requests/{requestId}/pickup.
func MarkPickedUp(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(logg, svc.MarkPickedUp)
}

// MarkDelivered handles POST /requests/{requestId}/deliver.
func MarkDelivered(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(logg, svc.MarkDelivered)
}

// Cancel handles POST /requests/{requestId}/cancel and refunds the escrow
// total to the hosteler.
func Cancel(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(logg, svc.Cancel)
}

// Complete handles POST /requests/{requestId}/complete. The helper submits
// the OTP the hosteler revealed at handover; staff may omit it.
func Complete(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		requestID, err := validators.ParseURLUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body completeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Complete(r.Context(), actor, requestID, body.OTP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestView(actor, updated))
	}
}

// RaiseDispute handles POST /requests/{requestId}/dispute.
func RaiseDispute(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		requestID, err := validators.ParseURLUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body disputeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RaiseDispute(r.Context(), actor, requestID, body.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestView(actor, updated))
	}
}

// ResolveDispute handles POST /requests/{requestId}/resolve for staff.
func ResolveDispute(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		requestID, err := validators.ParseURLUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body resolveBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.ResolveDispute(r.Context(), actor, requestID, enums.RequestStatus(body.Outcome))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestView(actor, updated))
	}
}

// transition factors the body-less status commands that differ only in the
// service method they call.
func transition(
	logg *logger.Logger,
	apply func(ctx context.Context, actor escrow.Actor, requestID uuid.UUID) (*models.DeliveryRequest, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing authenticated user"))
			return
		}

		requestID, err := validators.ParseURLUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := apply(r.Context(), actor, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestView(actor, updated))
	}
}
