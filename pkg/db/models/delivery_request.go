package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// DeliveryRequest is the escrowed unit of work between a hosteler and a
// campus helper. Money fields are fixed at creation; only status, helper
// binding, and payment_released change afterwards.
type DeliveryRequest struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	HostelerID            uuid.UUID           `gorm:"column:hosteler_id;type:uuid;not null;index"`
	HelperID              *uuid.UUID          `gorm:"column:helper_id;type:uuid;index"`
	HelperName            *string             `gorm:"column:helper_name"`
	Description           string              `gorm:"column:description"`
	BaseAmountMinor       int64               `gorm:"column:base_amount_minor;not null"`
	ServiceChargeMinor    int64               `gorm:"column:service_charge_minor;not null"`
	TipMinor              int64               `gorm:"column:tip_minor;not null;default:0"`
	TotalAmountMinor      int64               `gorm:"column:total_amount_minor;not null"`
	Status                enums.RequestStatus `gorm:"column:status;type:request_status_enum;not null;index"`
	OTP                   string              `gorm:"column:otp;type:char(4);not null"`
	PaymentReleased       bool                `gorm:"column:payment_released;not null;default:false"`
	EstimatedDeliveryTime *string             `gorm:"column:estimated_delivery_time"`
	Items                 []RequestItem       `gorm:"foreignKey:RequestID;references:ID"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RequestItem is one ordered line of a delivery request.
type RequestItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RequestID      uuid.UUID `gorm:"column:request_id;type:uuid;not null;index"`
	Position       int       `gorm:"column:position;not null"`
	Name           string    `gorm:"column:name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceMinor int64     `gorm:"column:unit_price_minor;not null"`
}
