package forum

import domain "github.com/example/community-forum/domain/forum"

const (
	reasonLoginRequired = "You must be logged in to do that."
	reasonNotHost       = "You are not allowed here!"
	reasonNotAuthor     = "You are not allowed here!"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns a *PermissionError for a denial and nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &PermissionError{Reason: d.Reason}
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanCreate reports whether the actor may create rooms or post messages.
func CanCreate(actor Actor) Decision {
	if !actor.Authenticated() {
		return deny(reasonLoginRequired)
	}
	return allow()
}

// CanModifyRoom permits only the room's host.
func CanModifyRoom(actor Actor, room *domain.Room) Decision {
	if !actor.Authenticated() {
		return deny(reasonLoginRequired)
	}
	if room == nil || room.HostID != actor.UserID {
		return deny(reasonNotHost)
	}
	return allow()
}

// CanDeleteMessage permits only the message's author.
func CanDeleteMessage(actor Actor, message *domain.Message) Decision {
	if !actor.Authenticated() {
		return deny(reasonLoginRequired)
	}
	if message == nil || message.UserID != actor.UserID {
		return deny(reasonNotAuthor)
	}
	return allow()
}
