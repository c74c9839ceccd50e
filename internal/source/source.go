package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/carereminder/internal/model"
)

// AuthError indicates that authentication has failed or expired.
// It is returned by clients when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is a non-2xx response from the booking API.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

// AppointmentSource supplies the customer's upcoming appointments.
type AppointmentSource interface {
	// Upcoming returns at most limit appointments that have not yet
	// taken place.
	Upcoming(ctx context.Context, limit int) ([]model.Appointment, error)
}

// SourceFunc adapts a plain function to AppointmentSource.
type SourceFunc func(ctx context.Context, limit int) ([]model.Appointment, error)

// Upcoming calls f.
func (f SourceFunc) Upcoming(ctx context.Context, limit int) ([]model.Appointment, error) {
	return f(ctx, limit)
}
