package ctdf

import "fmt"

type FetchErrorKind string

const (
	FetchErrorNetwork FetchErrorKind = "network"
	FetchErrorStatus  FetchErrorKind = "status"
	FetchErrorDecode  FetchErrorKind = "decode"
	FetchErrorPanic   FetchErrorKind = "panic"
)

type FetchError struct {
	Kind       FetchErrorKind
	Query      FeedQuery
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == FetchErrorStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Query, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.Query, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.Query, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
