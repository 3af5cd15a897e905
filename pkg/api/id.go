package api

import "github.com/google/uuid"

// NewID generates a new random (version 4) UUID string used for advisor and
// client identifiers.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks whether the given string is a well-formed UUID.
func ValidateID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
