package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ParseID parses an entity identifier. label names the entity in the error.
func ParseID(raw, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, Validation("invalid " + label + " ID format")
	}
	return id, nil
}
