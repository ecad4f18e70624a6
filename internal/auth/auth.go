package auth

// Well-known user groups. Group membership decides the authorization tier
// for every engine operation.
const (
	GroupAdmin  = "admin"
	GroupEditor = "editor"
)

// Caller identifies the authenticated user behind a request. The boundary
// layer resolves it before any engine call; the engine never looks it up
// ambiently.
type Caller struct {
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

// InGroup reports whether the caller belongs to the named group.
func (c Caller) InGroup(name string) bool {
	for _, g := range c.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller is in the admin group.
func (c Caller) IsAdmin() bool {
	return c.InGroup(GroupAdmin)
}

// IsEditor reports whether the caller is in the editor group.
func (c Caller) IsEditor() bool {
	return c.InGroup(GroupEditor)
}

// Session is the editing session a request runs under. Slide locks are
// scoped to a session, not to a user: the same user editing from two
// clients holds two distinct sessions.
type Session struct {
	ID   string `json:"id"`
	User string `json:"user"`
}
