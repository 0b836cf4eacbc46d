package models

import "fmt"

// EntityType identifies which shape a document currently has.
type EntityType string

const (
	EntityTypeIncomingFile EntityType = "INCOMING_FILE"
	EntityTypeBill         EntityType = "BILL"
	EntityTypeReceipt      EntityType = "RECEIPT"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeIncomingFile, EntityTypeBill, EntityTypeReceipt:
		return true
	}
	return false
}

func (t EntityType) String() string {
	return string(t)
}

// ParseEntityType accepts the canonical names and the lowercase path forms
// used by the API ("incoming-file", "bill", "receipt").
func ParseEntityType(s string) (EntityType, error) {
	switch s {
	case "INCOMING_FILE", "incoming-file", "incoming_file":
		return EntityTypeIncomingFile, nil
	case "BILL", "bill":
		return EntityTypeBill, nil
	case "RECEIPT", "receipt":
		return EntityTypeReceipt, nil
	}
	return "", fmt.Errorf("unknown entity type: %q", s)
}

// EntityRef addresses a document regardless of its current shape.
// It is a logical key, not a foreign key: the referenced row may be gone.
type EntityRef struct {
	Type EntityType
	ID   int64
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}
