package domain

// Actor is the platform identity behind an interaction.
type Actor struct {
	ID    string
	Name  string
	Roles []string
	Staff bool
	Owner bool
	Bot   bool
}

// IsStaff is true for staff members and owners.
func (a Actor) IsStaff() bool {
	return a.Staff || a.Owner
}

// HasRole reports whether the actor holds the given platform role.
func (a Actor) HasRole(roleID string) bool {
	for _, r := range a.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}
