package server

// sessionState is the protocol state of a session. A session starts
// unauthenticated and moves to named exactly once.
type sessionState interface {
	isSessionState()
}

type unauthenticated struct{}

type named struct {
	login string
}

func (unauthenticated) isSessionState() {}
func (named) isSessionState() {}
