package requests

import (
	"time"

	"github.com/uneedslabs/uneeds-backend/internal/escrow"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// ItemView is one priced line of a request.
type ItemView struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

// RequestView is the API shape of a delivery request. OTP is only present
// for the hosteler who must hand it over, and for staff.
type RequestView struct {
	ID                    string              `json:"id"`
	HostelerID            string              `json:"hosteler_id"`
	HelperID              *string             `json:"helper_id,omitempty"`
	HelperName            *string             `json:"helper_name,omitempty"`
	Description           string              `json:"description,omitempty"`
	Items                 []ItemView          `json:"items"`
	BaseAmountMinor       int64               `json:"base_amount_minor"`
	ServiceChargeMinor    int64               `json:"service_charge_minor"`
	TipMinor              int64               `json:"tip_minor"`
	TotalAmountMinor      int64               `json:"total_amount_minor"`
	Status                enums.RequestStatus `json:"status"`
	OTP                   string              `json:"otp,omitempty"`
	PaymentReleased       bool                `json:"payment_released"`
	EstimatedDeliveryTime *string             `json:"estimated_delivery_time,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// ListView pages request views with an opaque cursor.
type ListView struct {
	Requests   []RequestView `json:"requests"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func newRequestView(actor escrow.Actor, request *models.DeliveryRequest) RequestView {
	view := RequestView{
		ID:                    request.ID.String(),
		HostelerID:            request.HostelerID.String(),
		Description:           request.Description,
		Items:                 make([]ItemView, 0, len(request.Items)),
		BaseAmountMinor:       request.BaseAmountMinor,
		ServiceChargeMinor:    request.ServiceChargeMinor,
		TipMinor:              request.TipMinor,
		TotalAmountMinor:      request.TotalAmountMinor,
		Status:                request.Status,
		PaymentReleased:       request.PaymentReleased,
		EstimatedDeliveryTime: request.EstimatedDeliveryTime,
		CreatedAt:             request.CreatedAt,
		UpdatedAt:             request.UpdatedAt,
	}
	if request.HelperID != nil {
		helperID := request.HelperID.String()
		view.HelperID = &helperID
	}
	view.HelperName = request.HelperName
	for _, item := range request.Items {
		view.Items = append(view.Items, ItemView{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
		})
	}
	if actor.IsStaff() || request.HostelerID == actor.UserID {
		view.OTP = request.OTP
	}
	return view
}

func newListView(actor escrow.Actor, rows []models.DeliveryRequest, next string) ListView {
	view := ListView{
		Requests:   make([]RequestView, 0, len(rows)),
		NextCursor: next,
	}
	for i := range rows {
		view.Requests = append(view.Requests, newRequestView(actor, &rows[i]))
	}
	return view
}
