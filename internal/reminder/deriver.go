// Package reminder turns upcoming appointments into reminder
// notifications. Everything here is pure: the same appointment and the
// same instant always produce the same notification.
package reminder

import (
	"time"

	"github.com/nhle/carereminder/internal/model"
)

// midnight truncates t to the start of its calendar day in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysUntil returns the number of calendar days from now to date, both
// truncated to midnight in now's location. Elapsed hours are ignored:
// 23:59 today to 00:01 tomorrow is one day.
func DaysUntil(date, now time.Time) int {
	loc := now.Location()
	from := midnight(now, loc)
	to := midnight(date, loc)

	// Compare as UTC calendar dates so DST shifts cannot produce a
	// 23- or 25-hour day.
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC) / (24 * time.Hour))
}

// Eligible reports whether an appointment days away gets a reminder.
func Eligible(days int) bool {
	return days >= 0 && days <= WindowDays
}

// Derive returns the reminder for a, or nil when the appointment falls
// outside the reminder window. The result is unread and created at now.
func Derive(a model.Appointment, now time.Time) *model.Notification {
	days := DaysUntil(a.AppointmentDate, now)
	if !Eligible(days) {
		return nil
	}

	at := a.AppointmentDate.In(now.Location())
	return &model.Notification{
		ID:              model.ReminderID(a.AppointmentID),
		AppointmentID:   a.AppointmentID,
		AppointmentCode: a.AppointmentCode,
		Type:            model.NotificationTypeReminder,
		Title:           title(days),
		Message:         message(a, days, at),
		Time:            RelativeDayLabel(days),
		CreatedAt:       now,
		Unread:          true,
		Priority:        PriorityFor(days),
	}
}

// DeriveAll runs Derive over appts and drops the nils.
func DeriveAll(appts []model.Appointment, now time.Time) []model.Notification {
	out := make([]model.Notification, 0, len(appts))
	for _, a := range appts {
		if n := Derive(a, now); n != nil {
			out = append(out, *n)
		}
	}
	return out
}
