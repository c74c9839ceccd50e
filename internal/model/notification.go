package model

import (
	"strconv"
	"time"
)

// NotificationType distinguishes derived reminders from ad-hoc entries.
type NotificationType string

const (
	NotificationTypeReminder NotificationType = "appointment_reminder"
	NotificationTypeCustom   NotificationType = "custom"
)

// Priority is derived from how close the appointment is. It is never
// set by the user.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityNormal Priority = "normal"
)

// Rank orders priorities for display: high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityNormal:
		return true
	}
	return false
}

// ReminderIDPrefix prefixes the id of every appointment reminder.
const ReminderIDPrefix = "appointment-"

// CustomIDPrefix prefixes the id of every ad-hoc notification.
const CustomIDPrefix = "custom-"

// AppointmentsRoute is where a reminder click navigates to.
const AppointmentsRoute = "/my-appointments"

// ReminderID returns the stable notification id for an appointment.
func ReminderID(appointmentID int) string {
	return ReminderIDPrefix + strconv.Itoa(appointmentID)
}

// Notification is a single entry of the reminder feed. The JSON shape is
// the persisted format.
type Notification struct {
	// ID is "appointment-<id>" for reminders or "custom-<unix millis>".
	ID string `json:"id"`

	// AppointmentID and AppointmentCode are set for reminders only.
	AppointmentID   int    `json:"appointmentId,omitempty"`
	AppointmentCode string `json:"appointmentCode,omitempty"`

	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Message string           `json:"message"`

	// Time is a relative label ("Hôm nay", "2 ngày nữa") recomputed on
	// every derivation pass.
	Time string `json:"time"`

	// CreatedAt is set once and survives reconciliation.
	CreatedAt time.Time `json:"createdAt"`

	Unread   bool     `json:"unread"`
	Priority Priority `json:"priority"`
}

// IsReminder reports whether the notification was derived from an appointment.
func (n Notification) IsReminder() bool {
	return n.Type == NotificationTypeReminder
}

// Target returns the route a click on this notification should open,
// or "" when the notification has no destination.
func (n Notification) Target() string {
	if n.IsReminder() && n.AppointmentID != 0 {
		return AppointmentsRoute
	}
	return ""
}
