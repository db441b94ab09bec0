package auth

// SessionContext is the resolved identity of the current request. The zero
// value is an anonymous caller.
type SessionContext struct {
	SessionID  string
	UserID     string
	UserName   string
	IsApproved bool
	IsAdmin    bool
}

func (s SessionContext) Authenticated() bool {
	return s.UserID != ""
}
