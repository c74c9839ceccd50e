package model

import (
	"strconv"
	"strings"
	"time"
)

// Canonical appointment statuses.
const (
	AppointmentPending          = "pending"
	AppointmentConfirmed        = "confirmed"
	AppointmentRescheduled      = "rescheduled"
	AppointmentInProgress       = "inprogress"
	AppointmentCompleted        = "completed"
	AppointmentCompletedPartial = "completed_partial"
	AppointmentCancelled        = "cancelled"
	AppointmentNoShow           = "noshow"
	AppointmentUnknown          = "unknown"
)

// Appointment is a booked vehicle service slot as returned by the
// booking API. It is read-only input.
type Appointment struct {
	AppointmentID   int       `json:"appointmentId"`
	AppointmentCode string    `json:"appointmentCode"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Status          string    `json:"status"`
}

// statusIDs maps the numeric status ids used by the booking API.
var statusIDs = map[int]string{
	1: AppointmentPending,
	2: AppointmentConfirmed,
	3: AppointmentInProgress,
	4: AppointmentInProgress,
	5: AppointmentCompleted,
	6: AppointmentCancelled,
	7: AppointmentRescheduled,
	8: AppointmentNoShow,
	9: AppointmentCompletedPartial,
}

// CanonicalStatus normalizes the many spellings the booking API uses for
// appointment status, including bare numeric ids.
func CanonicalStatus(status string) string {
	raw := strings.ToLower(strings.TrimSpace(status))
	if id, err := strconv.Atoi(raw); err == nil {
		if s, ok := statusIDs[id]; ok {
			return s
		}
		return AppointmentUnknown
	}

	switch raw {
	case "pending", "pendingpayment", "awaitingpayment":
		return AppointmentPending
	case "confirmed":
		return AppointmentConfirmed
	case "rescheduled", "reschedule":
		return AppointmentRescheduled
	case "inprogress", "in_progress", "processing", "ongoing":
		return AppointmentInProgress
	case "completed":
		return AppointmentCompleted
	case "completedwithunpaidbalance", "completed_partial", "completedpartiallypaid":
		return AppointmentCompletedPartial
	case "cancelled", "canceled":
		return AppointmentCancelled
	case "noshow", "no_show":
		return AppointmentNoShow
	default:
		return AppointmentUnknown
	}
}

// IsActive reports whether the appointment can still happen. Completed,
// cancelled and no-show appointments are terminal.
func (a Appointment) IsActive() bool {
	switch CanonicalStatus(a.Status) {
	case AppointmentCompleted, AppointmentCompletedPartial,
		AppointmentCancelled, AppointmentNoShow:
		return false
	}
	return true
}
