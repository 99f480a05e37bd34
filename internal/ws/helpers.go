package ws

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

func userRoom(userID int) string          { return fmt.Sprintf("user:%d", userID) }
func sessionRoom(sessionID string) string { return "session:" + sessionID }
func notifRoom(userID int) string         { return fmt.Sprintf("notifications:%d", userID) }

// sessionMember reports whether the user is one of the two participants a
// canonical session id names.
func sessionMember(sessionID string, userID int) bool {
	parts := strings.SplitN(sessionID, ":", 2)
	if len(parts) != 2 {
		return false
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return false
	}
	return a == userID || b == userID
}

// sessionCounterpart returns the other participant, or 0 when the id is
// malformed or the user is not a member.
func sessionCounterpart(sessionID string, userID int) int {
	parts := strings.SplitN(sessionID, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return 0
	}
	switch userID {
	case a:
		return b
	case b:
		return a
	default:
		return 0
	}
}
