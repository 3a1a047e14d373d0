package enums

import "fmt"

// RequestStatus tracks the lifecycle of a delivery request.
type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "open"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusPickedUp  RequestStatus = "picked_up"
	RequestStatusDelivered RequestStatus = "delivered"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
	RequestStatusDisputed  RequestStatus = "disputed"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusOpen,
	RequestStatusAccepted,
	RequestStatusPickedUp,
	RequestStatusDelivered,
	RequestStatusCompleted,
	RequestStatusCancelled,
	RequestStatusDisputed,
}

// String implements fmt.Stringer.
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RequestStatus.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
