package domain

// Role is a workspace membership role. Roles are strictly ordered: each role
// includes every capability of the roles below it.
type Role int

const (
	RoleNone Role = iota
	RoleViewer
	RoleReviewer
	RoleEditor
	RoleAdmin
)

func ParseRole(s string) Role {
	switch s {
	case "viewer":
		return RoleViewer
	case "reviewer":
		return RoleReviewer
	case "editor":
		return RoleEditor
	case "admin":
		return RoleAdmin
	default:
		return RoleNone
	}
}

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleReviewer:
		return "reviewer"
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

// Meets reports whether r grants at least the capabilities of min.
func (r Role) Meets(min Role) bool {
	return r >= min
}
