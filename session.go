package session

import (
	goerrors "github.com/goliatone/go-errors"
)

// Snapshot is a point-in-time copy of the session state. Invariant: for
// every snapshot the machine hands out, IsAuthenticated is true exactly when
// both User and Token are present. A transition that drops one drops both.
type Snapshot struct {
	User            *User
	Token           string
	ExpiresIn       int64
	IsAuthenticated bool
	Loading         bool
	Err             *goerrors.Error
}

// Anonymous reports whether the snapshot carries no identity at all.
func (s Snapshot) Anonymous() bool {
	return s.User == nil && s.Token == "" && !s.IsAuthenticated
}
