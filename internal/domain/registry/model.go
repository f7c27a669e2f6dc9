package registry

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is one registry entry. Allergies and Chronic are free-text
// snapshots, overwritten in place when a visit is saved.
type Patient struct {
	ID           uuid.UUID `json:"id"`
	UHID         string    `json:"uhid"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Age          string    `json:"age"`
	Sex          string    `json:"sex"`
	Allergies    string    `json:"allergies"`
	Chronic      string    `json:"chronic"`
	RegisteredAt time.Time `json:"registered_at"`
}

// newUHID builds the human-readable identifier printed on documents:
// "CD" + registration date + the first four hex chars of the uuid.
func newUHID(id uuid.UUID, at time.Time) string {
	return "CD" + at.Format("060102") + "-" + strings.ToUpper(id.String()[:4])
}
