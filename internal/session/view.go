package session

// View is the page the dashboard shows for the current session state.
type View int

const (
	// ViewLoggedOut shows the login and registration forms.
	ViewLoggedOut View = iota
	// ViewLoggingIn is active while a login or registration call is in flight.
	ViewLoggingIn
	// ViewDashboard shows the task dashboard of a signed in user.
	ViewDashboard
)

func (v View) String() string {
	switch v {
	case ViewLoggedOut:
		return "logged_out"
	case ViewLoggingIn:
		return "logging_in"
	case ViewDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// MarshalText encodes the view by name.
func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
