package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "canteen.sid"

// Audit actions recorded for invoicing transitions.
const (
	ActionMovedToInvoiced      = "moved_to_invoiced"
	ActionMovedToRegistrations = "moved_to_registrations"
)
