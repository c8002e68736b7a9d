// Package notify holds the push notification model and the in-memory
// store the realtime channel feeds.
package notify

import (
	"encoding/json"
	"strings"
	"time"
)

// Type enumerates the notification kinds the server pushes.
type Type string

const (
	TypeReservationCreated   Type = "reservation_created"
	TypeReservationUpdated   Type = "reservation_updated"
	TypeReservationCancelled Type = "reservation_cancelled"
	TypeReservationCompleted Type = "reservation_completed"
	TypeReservationRejected  Type = "reservation_rejected"
	TypeReservationApproved  Type = "reservation_approved"

	TypeParkingLotCreated Type = "parking_lot_created"
	TypeParkingLotUpdated Type = "parking_lot_updated"
	TypeParkingLotDeleted Type = "parking_lot_deleted"

	TypeUserCreated Type = "user_created"
	TypeUserUpdated Type = "user_updated"
	TypeUserDeleted Type = "user_deleted"

	TypePaymentReceived Type = "payment_received"
	TypePaymentRefunded Type = "payment_refunded"
	TypePaymentFailed   Type = "payment_failed"

	TypeSystemMaintenance Type = "system_maintenance"
	TypeSystemUpdate      Type = "system_update"
)

// Category groups notification types for display.
type Category string

const (
	CategoryReservation Category = "reservation"
	CategoryParkingLot  Category = "parking-lot"
	CategoryUser        Category = "user"
	CategoryPayment     Category = "payment"
	CategorySystem      Category = "system"
	CategoryUnknown     Category = "unknown"
)

// Category maps a notification type onto its display category.
func (t Type) Category() Category {
	s := string(t)
	switch {
	case strings.HasPrefix(s, "reservation_"):
		return CategoryReservation
	case strings.HasPrefix(s, "parking_lot_"):
		return CategoryParkingLot
	case strings.HasPrefix(s, "user_"):
		return CategoryUser
	case strings.HasPrefix(s, "payment_"):
		return CategoryPayment
	case strings.HasPrefix(s, "system_"):
		return CategorySystem
	default:
		return CategoryUnknown
	}
}

// Recipient identifies the user a notification was addressed to.
type Recipient struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Notification is one push event as delivered over the wire. Data carries
// the type-specific payload and is left raw for the consumer to decode.
type Notification struct {
	ID        int64           `json:"id"`
	Type      Type            `json:"type"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
	IsRead    bool            `json:"is_read"`
	Recipient Recipient       `json:"recipient"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ReservationData is the payload carried by reservation_* notifications.
type ReservationData struct {
	ReservationID int64 `json:"reservation_id"`
	ParkingLot    struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"parking_lot"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount,omitempty"`
}

// PaymentData is the payload carried by payment_* notifications.
type PaymentData struct {
	PaymentID     int64   `json:"payment_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	ReservationID int64   `json:"reservation_id"`
	PaymentMethod string  `json:"payment_method"`
}
