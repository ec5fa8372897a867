package session

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleDentist Role = "dentist"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleDentist:
		return true
	}
	return false
}

// User is the signed-in clinic account. It is what gets persisted under
// StorageKey, so it must never carry a password.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        Role   `json:"role"`
	DisplayName string `json:"name"`
}

func (u *User) valid() bool {
	return u != nil && strings.TrimSpace(u.ID) != "" && strings.TrimSpace(u.Username) != "" && u.Role.Valid()
}

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
