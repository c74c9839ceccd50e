package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/carereminder/internal/model"
)

var ict = time.FixedZone("ICT", 7*60*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, ict)
}

func appt(id int, code string, date time.Time) model.Appointment {
	return model.Appointment{
		AppointmentID:   id,
		AppointmentCode: code,
		AppointmentDate: date,
		Status:          model.AppointmentConfirmed,
	}
}

func TestDaysUntil_IgnoresElapsedHours(t *testing.T) {
	now := at(18, 23, 59)

	assert.Equal(t, 0, DaysUntil(at(18, 0, 1), now))
	assert.Equal(t, 1, DaysUntil(at(19, 0, 1), now))
	assert.Equal(t, 3, DaysUntil(at(21, 23, 0), now))
	assert.Equal(t, -1, DaysUntil(at(17, 23, 59), now))
}

func TestDaysUntil_UsesNowLocation(t *testing.T) {
	// 2026-10-19 01:00 in ICT is still 2026-10-18 in UTC.
	date := time.Date(2026, time.October, 18, 18, 0, 0, 0, time.UTC)
	now := at(18, 9, 0)

	assert.Equal(t, 1, DaysUntil(date, now))
	assert.Equal(t, 0, DaysUntil(date, now.UTC()))
}

func TestDaysUntil_AcrossMonthBoundary(t *testing.T) {
	now := time.Date(2026, time.October, 30, 12, 0, 0, 0, ict)
	date := time.Date(2026, time.November, 2, 8, 0, 0, 0, ict)

	assert.Equal(t, 3, DaysUntil(date, now))
}

func TestDerive_Today(t *testing.T) {
	now := at(18, 8, 0)

	n := Derive(appt(42, "APT-042", at(18, 14, 30)), now)
	require.NotNil(t, n)

	assert.Equal(t, "appointment-42", n.ID)
	assert.Equal(t, 42, n.AppointmentID)
	assert.Equal(t, "APT-042", n.AppointmentCode)
	assert.Equal(t, model.NotificationTypeReminder, n.Type)
	assert.Equal(t, "Lịch bảo dưỡng hôm nay!", n.Title)
	assert.Equal(t, "Hôm nay", n.Time)
	assert.Equal(t, model.PriorityHigh, n.Priority)
	assert.True(t, n.Unread)
	assert.True(t, n.CreatedAt.Equal(now))
	assert.Equal(t,
		"Lịch hẹn APT-042 của bạn diễn ra hôm nay, Chủ Nhật, 18 tháng 10, 2026 lúc 14:30.",
		n.Message)
}

func TestDerive_PriorityByDistance(t *testing.T) {
	now := at(18, 8, 0)

	tests := []struct {
		name     string
		date     time.Time
		title    string
		label    string
		priority model.Priority
	}{
		{"tomorrow", at(19, 9, 0), "Nhắc lịch bảo dưỡng", "Ngày mai", model.PriorityMedium},
		{"two days", at(20, 9, 0), "Nhắc lịch bảo dưỡng", "2 ngày nữa", model.PriorityNormal},
		{"three days", at(21, 9, 0), "Nhắc lịch bảo dưỡng", "3 ngày nữa", model.PriorityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Derive(appt(1, "APT-1", tt.date), now)
			require.NotNil(t, n)
			assert.Equal(t, tt.title, n.Title)
			assert.Equal(t, tt.label, n.Time)
			assert.Equal(t, tt.priority, n.Priority)
		})
	}
}

func TestDerive_MessageForTomorrow(t *testing.T) {
	n := Derive(appt(7, "APT-7", at(19, 9, 5)), at(18, 22, 0))
	require.NotNil(t, n)
	assert.Equal(t,
		"Lịch hẹn APT-7 của bạn diễn ra ngày mai, Thứ Hai, 19 tháng 10, 2026 lúc 09:05.",
		n.Message)
}

func TestDerive_OutsideWindow(t *testing.T) {
	now := at(18, 8, 0)

	assert.Nil(t, Derive(appt(1, "A", at(22, 8, 0)), now), "four days ahead")
	assert.Nil(t, Derive(appt(2, "B", at(17, 23, 0)), now), "yesterday")
}

func TestDeriveAll_DropsIneligible(t *testing.T) {
	now := at(18, 8, 0)
	appts := []model.Appointment{
		appt(1, "A", at(18, 10, 0)),
		appt(2, "B", at(25, 10, 0)),
		appt(3, "C", at(20, 10, 0)),
	}

	got := DeriveAll(appts, now)
	require.Len(t, got, 2)
	assert.Equal(t, "appointment-1", got[0].ID)
	assert.Equal(t, "appointment-3", got[1].ID)
}

func TestDeriveAll_Empty(t *testing.T) {
	got := DeriveAll(nil, at(18, 8, 0))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRelativeDayLabel(t *testing.T) {
	assert.Equal(t, "Hôm nay", RelativeDayLabel(0))
	assert.Equal(t, "Ngày mai", RelativeDayLabel(1))
	assert.Equal(t, "Hôm qua", RelativeDayLabel(-1))
	assert.Equal(t, "5 ngày nữa", RelativeDayLabel(5))
	assert.Equal(t, "4 ngày trước", RelativeDayLabel(-4))
}

func TestFormatFullDate(t *testing.T) {
	assert.Equal(t, "Thứ Tư, 21 tháng 10, 2026", FormatFullDate(at(21, 0, 0)))
}
