package core

import (
	"strings"

	"github.com/google/uuid"
)

// NewHashID generates the short opaque identifier used in plan URLs.
func NewHashID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
