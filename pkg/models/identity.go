package models

import "strings"

// Identity is the session shape surfaced by the identity provider.
type Identity struct {
	UID         string `json:"uid" yaml:"uid"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Anonymous reports whether the identity carries no user id.
func (i Identity) Anonymous() bool {
	return strings.TrimSpace(i.UID) == ""
}

// NameToDisplay prefers the display name and falls back to the email.
func (i Identity) NameToDisplay() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}
