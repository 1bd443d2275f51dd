package models

// Session struct for storing session data
type Session struct {
	SessionToken string        `json:"session_token"`
	UserID       string        `json:"user_id"`
	Username     string        `json:"username"`
	CreatedAt    string        `json:"created_at"`
	ExpiresAt    string        `json:"expires_at"`
	LastActivity string        `json:"last_activity"`
	CSRFToken    string        `json:"csrf_token"`
	UserAgent    string        `json:"user_agent"`
	IPAddress    string        `json:"ip_address"`
	Values       SessionValues `json:"values"`
}

// IsAuthenticated reports whether a user is logged in on this session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != ""
}

// SessionValues is the free-form key/value part of a session. Handlers
// mutate it in place; persisting it is the caller's job.
type SessionValues map[string]string

const (
	SessionKeyVisits    = "visits"
	SessionKeyLastVisit = "last_visit"
)
