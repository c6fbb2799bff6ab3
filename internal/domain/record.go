package domain

import (
	"errors"
	"strings"
)

// AccountRecord is one roster entry. Name fields arrive already normalized
// (lowercased, space-stripped, diacritics folded) from the roster adapter;
// the rest of the system treats the derived username as an opaque identifier.
type AccountRecord struct {
	FirstName string
	LastName  string
	Password  string
}

// UserName derives the provisioning username: "<first>.<last>".
func (r AccountRecord) UserName() string {
	return r.FirstName + "." + r.LastName
}

func (r AccountRecord) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return errors.New("first name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return errors.New("last name is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}
