// Package domain contains entity without logic, just meta-data
package domain

type Role string

const (
	RoleGuest  Role = "guest"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type UserID string

// Identity is the verified (or guest-fallback) identity of one connection.
// Immutable for the lifetime of the session that resolved it.
type Identity struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"name"`
	Role        Role   `json:"role"`
}

func (i Identity) IsGuest() bool { return i.Role == RoleGuest }

// NewGuest mints the ephemeral identity used when a token is absent or
// unresolvable. Guests may watch and count toward viewers but never post.
func NewGuest(seed string) Identity {
	return Identity{
		ID:          UserID("guest-" + seed),
		DisplayName: "guest",
		Role:        RoleGuest,
	}
}
