package session

import (
	"context"
	"net/url"
)

// Route paths the session navigates to.
const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Location is a navigation target.
type Location struct {
	Path  string
	Query url.Values
	// Replace asks the navigation layer to replace the current history entry
	// so back-navigation cannot return to the previous page.
	Replace bool
}

// String renders the location as a relative URL.
func (l Location) String() string {
	u := url.URL{Path: l.Path}
	if len(l.Query) > 0 {
		u.RawQuery = l.Query.Encode()
	}
	return u.String()
}

// Navigator receives redirects signalled by session actions.
type Navigator interface {
	Navigate(ctx context.Context, to Location)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, to Location)

func (f NavigatorFunc) Navigate(ctx context.Context, to Location) { f(ctx, to) }
