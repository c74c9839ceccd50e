package booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/carereminder/internal/source"
)

var ict = time.FixedZone("ICT", 7*60*60)

func newTestAdapter(t *testing.T, body string, status int) (*Adapter, *string) {
	t.Helper()
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewAdapter(NewClient(srv.URL+"/api", "tok", ClientOptions{}), ict, nil), &gotURI
}

func TestAdapter_Upcoming_DataEnvelope(t *testing.T) {
	body := `{"success":true,"data":[
		{"appointmentId":12,"appointmentCode":"APT-12","appointmentDate":"2026-10-19T09:30:00","status":"Confirmed"},
		{"appointmentId":13,"appointmentCode":"APT-13","appointmentDate":"2026-10-20T02:00:00Z","status":2}
	]}`
	a, uri := newTestAdapter(t, body, http.StatusOK)

	got, err := a.Upcoming(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "/api/appointments/my-appointments/upcoming?limit=10", *uri)

	assert.Equal(t, 12, got[0].AppointmentID)
	assert.Equal(t, "APT-12", got[0].AppointmentCode)
	assert.True(t, got[0].AppointmentDate.Equal(time.Date(2026, 10, 19, 9, 30, 0, 0, ict)))
	assert.Equal(t, "Confirmed", got[0].Status)

	assert.True(t, got[1].AppointmentDate.Equal(time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2", got[1].Status)
}

func TestAdapter_Upcoming_BareArrayAndPage(t *testing.T) {
	item := `{"appointmentId":1,"appointmentCode":"A","appointmentDate":"2026-10-19","status":"pending"}`

	for name, body := range map[string]string{
		"bare array": `[` + item + `]`,
		"paged":      `{"data":{"items":[` + item + `],"total":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			a, _ := newTestAdapter(t, body, http.StatusOK)
			got, err := a.Upcoming(context.Background(), 5)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "A", got[0].AppointmentCode)
		})
	}
}

func TestAdapter_Upcoming_EmptyData(t *testing.T) {
	a, _ := newTestAdapter(t, `{"data":null}`, http.StatusOK)

	got, err := a.Upcoming(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAdapter_Upcoming_SkipsInvalidEntries(t *testing.T) {
	body := `{"data":[
		{"appointmentId":0,"appointmentCode":"ZERO","appointmentDate":"2026-10-19T09:00:00"},
		{"appointmentId":2,"appointmentCode":"","appointmentDate":"2026-10-19T09:00:00"},
		{"appointmentId":3,"appointmentCode":"BAD-DATE","appointmentDate":"next tuesday"},
		{"appointmentId":4,"appointmentCode":"OK","appointmentDate":"2026-10-19T09:00:00"}
	]}`
	a, _ := newTestAdapter(t, body, http.StatusOK)

	got, err := a.Upcoming(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].AppointmentID)
}

func TestAdapter_Upcoming_CapsAtLimit(t *testing.T) {
	body := `[
		{"appointmentId":1,"appointmentCode":"A","appointmentDate":"2026-10-19"},
		{"appointmentId":2,"appointmentCode":"B","appointmentDate":"2026-10-20"},
		{"appointmentId":3,"appointmentCode":"C","appointmentDate":"2026-10-21"}
	]`
	a, _ := newTestAdapter(t, body, http.StatusOK)

	got, err := a.Upcoming(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAdapter_Upcoming_AuthError(t *testing.T) {
	a, _ := newTestAdapter(t, `{"message":"unauthorized"}`, http.StatusUnauthorized)

	_, err := a.Upcoming(context.Background(), 10)
	assert.True(t, source.IsAuthError(err))
}

func TestAdapter_Upcoming_MalformedBody(t *testing.T) {
	a, _ := newTestAdapter(t, `{"data":"oops"}`, http.StatusOK)

	_, err := a.Upcoming(context.Background(), 10)
	assert.Error(t, err)
}

func TestAdapter_Upcoming_SkipsMistypedEntries(t *testing.T) {
	body := `{"data":[
		{"appointmentId":"7","appointmentCode":"STR-ID","appointmentDate":"2026-10-19T09:00:00"},
		{"appointmentId":8,"appointmentCode":"OBJ","appointmentDate":"2026-10-19T09:00:00","status":{"id":2}},
		{"appointmentId":9,"appointmentCode":"BOOL","appointmentDate":"2026-10-19T09:00:00","status":true},
		{"appointmentId":10,"appointmentCode":"OK","appointmentDate":"2026-10-19T09:00:00","status":"confirmed"}
	]}`
	a, _ := newTestAdapter(t, body, http.StatusOK)

	got, err := a.Upcoming(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].AppointmentID)
	assert.Equal(t, "OK", got[0].AppointmentCode)
}

func TestDecodeAppointment_RejectsObjectStatus(t *testing.T) {
	entries, err := decodeAppointments([]byte(`[{"appointmentId":1,"status":{"id":2}}]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = decodeAppointment(entries[0])
	assert.Error(t, err)
}
