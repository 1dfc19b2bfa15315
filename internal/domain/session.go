package domain

type SessionStatus string

const (
	SessionLoading       SessionStatus = "loading"
	SessionAuthenticated SessionStatus = "authenticated"
	SessionAnonymous     SessionStatus = "anonymous"
)

// User represents the authenticated identity of the current session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is an immutable snapshot of the authentication state. It is
// authenticated iff both a user and a token are present and the token has
// been validated upstream since the last (re)load.
type Session struct {
	User   *User
	Token  string
	Status SessionStatus
}

func (s Session) Authenticated() bool { return s.Status == SessionAuthenticated }
