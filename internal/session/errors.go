package session

import "fmt"

// ElementNotFoundError means a page element the login flow depends on never
// appeared, even after the bounded wait. It usually indicates the platform
// changed its markup or the page failed to render.
type ElementNotFoundError struct {
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q did not appear on the page", e.Selector)
}

// AuthenticationError means the platform rejected the submitted credentials.
// Message carries the platform's own error text, verbatim.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Message
}
