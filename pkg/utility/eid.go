package utility

import (
	"github.com/google/uuid"
)

type RunID = uuid.UUID

// NewRunID returns a time ordered identifier for one replay. Every run gets its own id, nothing
// is shared between runs.
func NewRunID() RunID {
	return uuid.Must(uuid.NewV7())
}

func ParseRunID(s string) (RunID, error) {
	return uuid.Parse(s)
}
