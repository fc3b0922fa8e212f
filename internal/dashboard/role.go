package dashboard

import "strings"

// Role is the session role as issued by the backend.
type Role string

const (
	RolePharmacist Role = "PHARMACIST"
	RolePhysician  Role = "PHYSICIAN"
	RoleAdmin      Role = "ADMIN"
)

// ParseRole normalizes a role string. Unknown roles are returned as-is in
// upper case; ChooseAction treats them like any other non-pharmacist role.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// ActionKind is the single action a patient row offers.
type ActionKind int

const (
	ActionConsult ActionKind = iota
	ActionDispense
)

func (k ActionKind) String() string {
	if k == ActionDispense {
		return "dispense"
	}
	return "consult"
}

// Label is the trigger text shown on a row.
func (k ActionKind) Label() string {
	if k == ActionDispense {
		return "GIVE MEDICINE"
	}
	return "CONSULT"
}

// ChooseAction maps a role to the row action. Only pharmacists dispense;
// every other role, including unknown ones, consults. This is presentation
// only; the backend authorizes each request on its own.
func ChooseAction(role Role) ActionKind {
	if role == RolePharmacist {
		return ActionDispense
	}
	return ActionConsult
}

// Session identifies the signed-in user. It is obtained once from the
// authenticated backend session and passed down explicitly.
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Action returns the row action for this session.
func (s Session) Action() ActionKind {
	return ChooseAction(s.Role)
}
