package services

import "github.com/gofrs/uuid"

// Owns reports whether the actor owns the resource. Viewing, updating and
// deleting a task all apply this same rule; there are no roles and no
// shared access.
func Owns(actorID, ownerID uuid.UUID) bool {
	return actorID == ownerID
}
