package auth

// Operation names the kind of access being requested. The ownership rule
// is the same for all of them; the operation is carried for logging.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Decision is the outcome of an ownership check. It is computed per
// request and never persisted.
type Decision struct {
	Allow  bool
	Reason string
}

// Authorize decides whether id may perform op on a resource owned by
// ownerID: Admins everywhere, everyone else only on their own resources.
func Authorize(id Identity, ownerID int64, op Operation) Decision {
	switch {
	case id.Role == RoleAdmin:
		return Decision{Allow: true, Reason: "admin"}
	case id.UserID == ownerID:
		return Decision{Allow: true, Reason: "owner"}
	default:
		return Decision{Allow: false, Reason: "not the owner"}
	}
}

// ListScope narrows collection queries to the caller's own rows. Admins
// get all=true and no owner predicate.
func ListScope(id Identity) (ownerID int64, all bool) {
	if id.Role == RoleAdmin {
		return 0, true
	}
	return id.UserID, false
}
