package domain

import "github.com/google/uuid"

// Actor is the authenticated caller of an operation, resolved by the
// identity collaborator. Blocked actors may read but not join events.
type Actor struct {
	ID      uuid.UUID
	Blocked bool
}
