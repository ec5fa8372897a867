package session

// Paths the front-end router switches between.
const (
	LoginPath = "/login"
	AppPath   = "/(tabs)"
)

// Redirect decides where the router should send a user who is currently on a
// route whose first segment is firstSegment. ok is false when the router
// should stay put, which is always the case while the gate is loading.
func Redirect(state State, firstSegment string) (target string, ok bool) {
	switch state {
	case StateUnauthenticated:
		if firstSegment != "login" {
			return LoginPath, true
		}
	case StateAuthenticated:
		if firstSegment == "login" || firstSegment == "" {
			return AppPath, true
		}
	}
	return "", false
}
