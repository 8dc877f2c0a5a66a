// Package authz holds the authorization predicates, one per protected
// operation. Handlers and use cases ask these instead of comparing roles inline.
package authz

import "strings"

// Role is the coarse role carried by an authenticated principal.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// Principal is everything that crosses the identity boundary.
type Principal struct {
	UserID int64
	Role   Role
}

// ParseRole accepts roles case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOrganizer:
		return RoleOrganizer, true
	case RoleAttendee:
		return RoleAttendee, true
	}
	return "", false
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authenticated reports whether the principal came from a valid credential.
func (p Principal) Authenticated() bool {
	return p.UserID > 0 && p.Role != ""
}

// CanBook allows any authenticated user to book.
func CanBook(p Principal) bool {
	return p.Authenticated()
}

// CanViewBooking scopes booking reads to the booking's owner.
func CanViewBooking(p Principal, ownerID int64) bool {
	return p.Authenticated() && p.UserID == ownerID
}

// CanCheckIn allows the event's organizer or an admin.
func CanCheckIn(p Principal, eventOrganizerID int64) bool {
	if !p.Authenticated() {
		return false
	}
	return p.IsAdmin() || p.UserID == eventOrganizerID
}
