package login

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/storecount/go-footfall-client/gateway"
	apperrors "github.com/storecount/go-footfall-client/internal/errors"
)

// State of the login flow. Failures never transition; they surface as
// transient errors and the flow stays where it was.
type State int

const (
	StateAnonymous State = iota
	StatePincodeRequested
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePincodeRequested:
		return "pincode-requested"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Authenticator issues pincodes and exchanges them for a session.
type Authenticator interface {
	RequestPincode(ctx context.Context, email, password string) error
	VerifyPincode(ctx context.Context, email, pincode string) (*gateway.Credentials, error)
}

// Flow drives the two-step pincode login.
type Flow struct {
	auth  Authenticator
	state State
	email string
}

// NewFlow creates a login flow in the anonymous state.
func NewFlow(auth Authenticator) (*Flow, error) {
	if auth == nil {
		return nil, errors.New("[NewFlow] authenticator is required")
	}
	return &Flow{auth: auth, state: StateAnonymous}, nil
}

// State returns the current flow state.
func (f *Flow) State() State {
	return f.state
}

// Email returns the address the pincode was requested for.
func (f *Flow) Email() string {
	return f.email
}

// SubmitCredentials validates the credentials client-side and asks the
// backend to send a one-time pincode. On success the flow advances to
// pincode-requested.
func (f *Flow) SubmitCredentials(ctx context.Context, email, password string) error {
	if f.state != StateAnonymous {
		return errors.Wrapf(apperrors.ErrInvalidFlowStep, "state %s", f.state)
	}
	if !emailPattern.MatchString(email) {
		return apperrors.ErrInvalidEmail
	}
	if strings.TrimSpace(password) == "" {
		return apperrors.ErrEmptyPassword
	}

	if err := f.auth.RequestPincode(ctx, email, password); err != nil {
		return errors.Wrap(err, "[Flow.SubmitCredentials] request pincode")
	}

	f.email = email
	f.state = StatePincodeRequested
	return nil
}

// SubmitPincode verifies the 6-digit code. On success the flow is
// authenticated and the session has been established; on failure it stays at
// pincode-requested.
func (f *Flow) SubmitPincode(ctx context.Context, pincode string) error {
	if f.state != StatePincodeRequested {
		return errors.Wrapf(apperrors.ErrInvalidFlowStep, "state %s", f.state)
	}
	if !isSixDigits(pincode) {
		return apperrors.ErrInvalidPincode
	}

	if _, err := f.auth.VerifyPincode(ctx, f.email, pincode); err != nil {
		return errors.Wrap(err, "[Flow.SubmitPincode] verify pincode")
	}

	f.state = StateAuthenticated
	return nil
}

func isSixDigits(pincode string) bool {
	if len(pincode) != 6 {
		return false
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
