package types

import "github.com/google/uuid"

// UUIDList is a jsonb-serialized list of entity ids. A nil list means
// "applies to everything" for coupon scoping.
type UUIDList []uuid.UUID

// Contains reports whether id is present.
func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, candidate := range l {
		if candidate == id {
			return true
		}
	}
	return false
}

// Unrestricted reports whether the list imposes no filter.
func (l UUIDList) Unrestricted() bool {
	return len(l) == 0
}
