package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// appointmentPayload is one appointment as the booking API serializes it.
type appointmentPayload struct {
	AppointmentID   int        `json:"appointmentId" validate:"required,gt=0"`
	AppointmentCode string     `json:"appointmentCode" validate:"required"`
	AppointmentDate string     `json:"appointmentDate" validate:"required"`
	Status          statusText `json:"status"`
}

// statusText accepts both "Confirmed" and numeric status ids.
type statusText string

func (s *statusText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = statusText(str)
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("status must be a string or integer, got %s", data)
	}
	*s = statusText(strconv.Itoa(n))
	return nil
}

// envelope is the common response wrapper. Data is either the list
// itself or a page object holding it under items.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type page struct {
	Items []json.RawMessage `json:"items"`
}

// decodeAppointments unwraps the response shapes the API has used:
// a bare array, {"data": [...]}, and {"data": {"items": [...]}}. It
// returns the raw entries so one malformed record cannot fail the rest.
func decodeAppointments(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var list []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decoding appointment list: %w", err)
		}
		return list, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decoding appointment list: %w", err)
		}
		return list, nil
	}

	var p page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding appointment page: %w", err)
	}
	return p.Items, nil
}

// decodeAppointment decodes a single entry.
func decodeAppointment(raw json.RawMessage) (appointmentPayload, error) {
	var p appointmentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return appointmentPayload{}, fmt.Errorf("decoding appointment: %w", err)
	}
	return p, nil
}
