package domain

type User struct {
	ID        int64
	Name      string
	Email     string
	Bookmarks Bookmarks
}

// Session is the authenticated context the presentation layer hands to the
// services. A zero UserID means nobody is logged in.
type Session struct {
	ID     string
	UserID int64
}

func (s Session) Authenticated() bool { return s.UserID > 0 }
