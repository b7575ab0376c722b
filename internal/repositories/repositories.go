// Package repositories provides persistence access per aggregate. Each
// repository is an interface backed by a GORM implementation; services bind
// repositories to a transaction handle when several mutations must commit
// together.
package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup misses, including lookups scoped to
// a manager who does not own the record.
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
