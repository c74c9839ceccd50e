// Package booking fetches appointments from the vehicle-service
// booking REST API.
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/source"
	"github.com/nhle/carereminder/internal/validate"
)

// upcomingPath lists the signed-in customer's upcoming appointments.
const upcomingPath = "/appointments/my-appointments/upcoming"

// dateLayouts are tried in order when parsing appointmentDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Adapter implements source.AppointmentSource on top of Client.
type Adapter struct {
	client *Client
	loc    *time.Location
	logger *slog.Logger
}

var _ source.AppointmentSource = (*Adapter)(nil)

// NewAdapter creates an Adapter. Dates without a zone offset are read
// in loc.
func NewAdapter(client *Client, loc *time.Location, logger *slog.Logger) *Adapter {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{client: client, loc: loc, logger: logger}
}

// Upcoming fetches at most limit upcoming appointments. Entries that
// fail validation are skipped and logged rather than failing the batch.
func (a *Adapter) Upcoming(ctx context.Context, limit int) ([]model.Appointment, error) {
	path := fmt.Sprintf("%s?limit=%d", upcomingPath, limit)

	var raw json.RawMessage
	if err := a.client.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("fetching upcoming appointments: %w", err)
	}

	entries, err := decodeAppointments(raw)
	if err != nil {
		return nil, err
	}

	appts := make([]model.Appointment, 0, len(entries))
	for i, entry := range entries {
		p, err := decodeAppointment(entry)
		if err != nil {
			a.logger.Warn("skipping malformed appointment", "index", i, "err", err)
			continue
		}
		appt, err := a.toAppointment(p)
		if err != nil {
			a.logger.Warn("skipping invalid appointment",
				"appointment_id", p.AppointmentID, "err", err)
			continue
		}
		appts = append(appts, appt)
	}

	if limit > 0 && len(appts) > limit {
		appts = appts[:limit]
	}
	return appts, nil
}

func (a *Adapter) toAppointment(p appointmentPayload) (model.Appointment, error) {
	if err := validate.Struct(p); err != nil {
		return model.Appointment{}, err
	}

	date, err := parseDate(p.AppointmentDate, a.loc)
	if err != nil {
		return model.Appointment{}, err
	}

	return model.Appointment{
		AppointmentID:   p.AppointmentID,
		AppointmentCode: p.AppointmentCode,
		AppointmentDate: date,
		Status:          string(p.Status),
	}, nil
}

// parseDate accepts ISO-8601 with or without a zone offset.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized appointmentDate %q", s)
}
