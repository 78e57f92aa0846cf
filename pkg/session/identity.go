package session

import (
	"encoding/json"
	"errors"
	"strings"
)

// Identity is the signed-in user.
type Identity struct {
	// ID is the email-like unique identifier.
	ID string `json:"email"`
	// Name is the display name.
	Name string `json:"name"`
}

// MarshalIdentity serializes id into the persisted record format.
func MarshalIdentity(id Identity) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseIdentity decodes a persisted record. A record that is not a JSON
// object or has an empty identifier is rejected with ErrStoreParse.
func ParseIdentity(raw string) (Identity, error) {
	var id *Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, errors.Join(ErrStoreParse, err)
	}
	if id == nil {
		return Identity{}, errors.Join(ErrStoreParse, errors.New("record is null"))
	}
	if strings.TrimSpace(id.ID) == "" {
		return Identity{}, errors.Join(ErrStoreParse, errors.New("record has no identifier"))
	}
	return *id, nil
}
