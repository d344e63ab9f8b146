package model

import "time"

// NotificationCategory classifies inbox messages so clients can style
// them.  The lifecycle engine emits "success" for confirmations and
// "warning" for rejections; administrative dispatches use "info".
type NotificationCategory string

const (
	NotifySuccess NotificationCategory = "success"
	NotifyWarning NotificationCategory = "warning"
	NotifyInfo    NotificationCategory = "info"
)

// Notification is a dashboard inbox message stored in the
// `notifications` table.  The lifecycle engine creates one as part of
// every decision; afterwards the only permitted mutation is the
// recipient marking it read.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – recipient.
//  ReservationID – reservation the message refers to, if any.
//  Subject       – short subject line.
//  Body          – message body; names the room and, on rejection,
//                  quotes the administrator's notes.
//  Category      – success, warning or info.
//  IsRead        – whether the recipient has opened the message.
//  CreatedAt     – timestamp of creation.
type Notification struct {
	ID            uint64               `json:"id"`                       // notifications.id
	UserID        uint64               `json:"user_id"`                  // notifications.user_id
	ReservationID *uint64              `json:"reservation_id,omitempty"` // notifications.reservation_id (nullable)
	Subject       string               `json:"subject"`                  // notifications.subject
	Body          string               `json:"body"`                     // notifications.body
	Category      NotificationCategory `json:"category"`                 // notifications.category
	IsRead        bool                 `json:"is_read"`                  // notifications.is_read
	CreatedAt     time.Time            `json:"created_at"`               // notifications.created_at
}
