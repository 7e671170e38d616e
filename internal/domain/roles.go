package domain

// Role is the canonical access role. The remote API historically labels
// ambassadors as "user" in some responses; ParseRole folds that into
// the canonical value at the boundary so the rest of the console only
// ever sees admin or ambassador.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAmbassador Role = "ambassador"
	RoleUnset      Role = ""
)

// ParseRole maps an external role label to its canonical Role.
// Unknown labels map to RoleUnset, which the dashboard renders as an
// explicit unauthorized view.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "ambassador", "user":
		return RoleAmbassador
	default:
		return RoleUnset
	}
}
