package auth

import (
	"errors"
	"strings"
)

type Identity struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	Capabilities Capabilities `json:"permissions"`
}

func (i Identity) Can(capability Capability) bool {
	return i.Capabilities.Has(capability)
}

func (i Identity) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("identity id is required")
	}
	if strings.TrimSpace(i.Email) == "" {
		return errors.New("identity email is required")
	}
	return nil
}

func (i Identity) Equal(other Identity) bool {
	return i.ID == other.ID &&
		i.Name == other.Name &&
		i.Email == other.Email &&
		i.Role == other.Role &&
		i.Capabilities.Equal(other.Capabilities)
}

// State is a point-in-time view of a Session.
type State struct {
	Identity  *Identity `json:"user"`
	Resolving bool      `json:"resolving"`
}

func (s State) Authenticated() bool {
	return !s.Resolving && s.Identity != nil
}
