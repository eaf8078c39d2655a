package valueobjects

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NodeID is a value object representing a unique node identifier.
// New identifiers are UUID-backed; identifiers loaded from legacy
// documents ("node-1", "node-2", ...) stay valid as opaque strings so
// connections keep resolving after migration.
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// ParseNodeID creates a NodeID from an existing string
func ParseNodeID(id string) (NodeID, error) {
	if err := validateID(id); err != nil {
		return NodeID{}, err
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.value)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	s, err := unquoteID(data)
	if err != nil {
		return err
	}
	id.value = s
	return nil
}

// ConnectionID is a value object representing a unique connection identifier
type ConnectionID struct {
	value string
}

// NewConnectionID creates a new random ConnectionID
func NewConnectionID() ConnectionID {
	return ConnectionID{value: uuid.New().String()}
}

// ParseConnectionID creates a ConnectionID from an existing string
func ParseConnectionID(id string) (ConnectionID, error) {
	if err := validateID(id); err != nil {
		return ConnectionID{}, err
	}
	return ConnectionID{value: id}, nil
}

// String returns the string representation of the ConnectionID
func (id ConnectionID) String() string {
	return id.value
}

// Equals checks if two ConnectionIDs are equal
func (id ConnectionID) Equals(other ConnectionID) bool {
	return id.value == other.value
}

// IsZero checks if the ConnectionID is the zero value
func (id ConnectionID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id ConnectionID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.value)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ConnectionID) UnmarshalJSON(data []byte) error {
	s, err := unquoteID(data)
	if err != nil {
		return err
	}
	id.value = s
	return nil
}

var legacyIDPattern = regexp.MustCompile(`^(node|connection|branch)-(\d+)$`)

// LegacySequence extracts the sequence number from a legacy
// integer-suffixed identifier. The second return value reports whether
// the identifier matches the legacy pattern at all.
func LegacySequence(id string) (int, bool) {
	m := legacyIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsLegacyID reports whether an identifier uses the legacy sequential format
func IsLegacyID(id string) bool {
	_, ok := LegacySequence(id)
	return ok
}

func validateID(id string) error {
	if id == "" {
		return errors.New("identifier cannot be empty")
	}
	if strings.TrimSpace(id) != id {
		return errors.New("identifier cannot contain leading or trailing whitespace")
	}
	return nil
}

func unquoteID(data []byte) (string, error) {
	if string(data) == "null" {
		return "", nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errors.New("identifier must be a JSON string")
	}
	return string(data[1 : len(data)-1]), nil
}
