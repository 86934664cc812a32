package user

import "fmt"

// Role is the closed set of account roles. Using a dedicated type keeps
// invalid roles out at construction time instead of surfacing later as a
// string-comparison mismatch.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role string coming from storage or input.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	return string(r)
}
