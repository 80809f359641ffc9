package live

// SessionError reports a failure of the realtime session itself: it could
// not be opened, or the transport broke while it was live.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string { return "live session " + e.Op + ": " + e.Err.Error() }

func (e *SessionError) Unwrap() error { return e.Err }
