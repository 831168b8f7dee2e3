package chess

import "strings"

// Role is the side this client was seated as.
type Role string

const (
	RoleUnassigned Role = ""
	RoleWhite      Role = "white"
	RoleBlack      Role = "black"
	RoleSpectator  Role = "spectator"
)

// ParseRoleToken maps the server's role token ("w" / "b") to a Role.
func ParseRoleToken(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return RoleWhite, true
	case "b", "black":
		return RoleBlack, true
	default:
		return RoleUnassigned, false
	}
}

// IsPlayer reports whether the role takes turns.
func (r Role) IsPlayer() bool { return r == RoleWhite || r == RoleBlack }

func (r Role) Title() string {
	switch r {
	case RoleWhite:
		return "White"
	case RoleBlack:
		return "Black"
	case RoleSpectator:
		return "Spectator"
	default:
		return "Unassigned"
	}
}
