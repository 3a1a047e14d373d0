package models

import (
	"time"

	"github.com/google/uuid"
)

// DisputeAlert lands in the admin queue when a party disputes a request.
// Its lifecycle is independent of the request: dismissing an alert does not
// resolve the dispute and resolving the dispute does not dismiss the alert.
type DisputeAlert struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RequestID uuid.UUID `gorm:"column:request_id;type:uuid;not null;index"`
	RaisedBy  uuid.UUID `gorm:"column:raised_by;type:uuid;not null"`
	Message   string    `gorm:"column:message;not null"`
	IsRead    bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
