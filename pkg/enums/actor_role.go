package enums

import "fmt"

// ActorRole tags a session token with the kind of actor it was minted for.
type ActorRole string

const (
	ActorRoleOrganizer ActorRole = "organizer"
	ActorRoleStall     ActorRole = "stall"
	ActorRoleCashier   ActorRole = "cashier"
	ActorRoleVisitor   ActorRole = "visitor"
)

var validActorRoles = []ActorRole{
	ActorRoleOrganizer,
	ActorRoleStall,
	ActorRoleCashier,
	ActorRoleVisitor,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
