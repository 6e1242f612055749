package domain

// There is exactly one role today. Call sites still go through the
// capability table so a future role set doesn't touch every check.
const RoleAdmin = "admin"

const CapManageUsers = "manage-users"

var roleCapabilities = map[string]map[string]bool{
	RoleAdmin: {CapManageUsers: true},
}

// Claims is the identity extracted from a verified access token.
// Only identity is trusted from the token; account status is always
// re-derived from storage.
type Claims struct {
	UserId UserId
	Email  Email
	Role   string
}

func (c *Claims) HasCapability(capability string) bool {
	caps, ok := roleCapabilities[c.Role]
	return ok && caps[capability]
}
