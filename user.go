package tp

// Session is the locally persisted authentication state. A session is authenticated
// iff Token is not empty.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Company    string `json:"company,omitempty"`
	IsActive   bool   `json:"is_active"`
	IsAdmin    bool   `json:"is_admin"`
	IsApproved bool   `json:"is_approved"`
	CreatedAt  Time   `json:"created_at"`
}

// Registration is the payload of POST /users/.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
}

// SessionStore persists the session across runs.
type SessionStore interface {
	Get() (Session, error)
	Save(Session) error
	Clear() error
}
