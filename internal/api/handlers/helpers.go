package handlers

import (
	"strings"

	"github.com/google/uuid"
)

const gameCodeLength = 5

// generateGameCode derives a short upper-case game code from a UUID.
func generateGameCode() string {
	return strings.ToUpper(uuid.NewString()[:gameCodeLength])
}
