package domain

import "fmt"

// User is a profile from the users/profiles arrays of API responses.
type User struct {
	ID         int64
	FirstName  string
	LastName   string
	ScreenName string
	IsOnline   bool
}

// FullName returns "First Last".
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// DisplayName resolves a peer id against a user cache, falling back to
// a synthesized name the way the chat list does for unknown peers.
func DisplayName(users map[int64]User, id int64) string {
	if u, ok := users[id]; ok {
		return u.FullName()
	}
	if id < 0 {
		return fmt.Sprintf("Group %d", -id)
	}
	return fmt.Sprintf("User %d", id)
}
