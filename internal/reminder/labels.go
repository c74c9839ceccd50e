package reminder

import (
	"fmt"
	"time"

	"github.com/nhle/carereminder/internal/model"
)

// WindowDays is the furthest ahead, in calendar days, that an
// appointment still produces a reminder.
const WindowDays = 3

const (
	titleToday    = "Lịch bảo dưỡng hôm nay!"
	titleUpcoming = "Nhắc lịch bảo dưỡng"
)

var weekdays = [...]string{
	time.Sunday:    "Chủ Nhật",
	time.Monday:    "Thứ Hai",
	time.Tuesday:   "Thứ Ba",
	time.Wednesday: "Thứ Tư",
	time.Thursday:  "Thứ Năm",
	time.Friday:    "Thứ Sáu",
	time.Saturday:  "Thứ Bảy",
}

// RelativeDayLabel renders a day offset the way the feed shows it.
func RelativeDayLabel(days int) string {
	switch {
	case days == 0:
		return "Hôm nay"
	case days == 1:
		return "Ngày mai"
	case days == -1:
		return "Hôm qua"
	case days > 1:
		return fmt.Sprintf("%d ngày nữa", days)
	default:
		return fmt.Sprintf("%d ngày trước", -days)
	}
}

// PriorityFor maps a day offset to a notification priority.
func PriorityFor(days int) model.Priority {
	switch days {
	case 0:
		return model.PriorityHigh
	case 1:
		return model.PriorityMedium
	default:
		return model.PriorityNormal
	}
}

// FormatFullDate renders t in vi-VN long form with weekday,
// e.g. "Thứ Hai, 19 tháng 10, 2026".
func FormatFullDate(t time.Time) string {
	return fmt.Sprintf("%s, %d tháng %d, %d",
		weekdays[t.Weekday()], t.Day(), int(t.Month()), t.Year())
}

// dayPhrase is the offset as it reads inside a sentence.
func dayPhrase(days int) string {
	switch days {
	case 0:
		return "hôm nay"
	case 1:
		return "ngày mai"
	default:
		return fmt.Sprintf("sau %d ngày nữa", days)
	}
}

func title(days int) string {
	if days == 0 {
		return titleToday
	}
	return titleUpcoming
}

func message(a model.Appointment, days int, at time.Time) string {
	return fmt.Sprintf(
		"Lịch hẹn %s của bạn diễn ra %s, %s lúc %s.",
		a.AppointmentCode, dayPhrase(days), FormatFullDate(at), at.Format("15:04"),
	)
}
