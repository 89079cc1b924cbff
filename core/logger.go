package core

// Logger logs messages and reports errors.
// args may hold errors, extra data (map[string]interface{}) and the session's Identity.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity is the authenticated person behind a client session, as far as the client knows it.
type Identity struct {
	ID       string
	Username string
	Email    string
}
