package api

import "net/http"

// Kind classifies a failed Result for callers that branch on the failure
// class rather than the exact status code.
type Kind int

const (
	// KindNone marks a successful result.
	KindNone Kind = iota

	// KindNetwork is a transport-level failure: no response was received.
	KindNetwork

	// KindUnauthorized is a 401; the session store has already been told.
	KindUnauthorized

	// KindValidation is any other 4xx, carrying a server message meant for
	// the user.
	KindValidation

	// KindServer is a 5xx; the message is generic.
	KindServer
)

// Kind returns the failure class of the result.
func (r Result[T]) Kind() Kind {
	switch {
	case r.OK():
		return KindNone
	case r.Status == 0:
		return KindNetwork
	case r.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case r.Status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}
