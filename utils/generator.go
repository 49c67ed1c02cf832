package utils

import (
	"math/rand"
	"time"
)

const roomCodeLength = 10
const letterBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateMeetingURL builds a fallback meeting room link for bookings accepted
// without an explicit one.
func GenerateMeetingURL() string {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
	}
	return "https://meet.prismlearn.app/" + string(b)
}
