package forum

// Actor is the user on whose behalf an operation runs. The zero value is
// an anonymous visitor.
type Actor struct {
	UserID   string
	Username string
}

// Anonymous is the actor for requests without a session.
var Anonymous = Actor{}

// Authenticated reports whether the actor is a logged-in user.
func (a Actor) Authenticated() bool {
	return a.UserID != ""
}
