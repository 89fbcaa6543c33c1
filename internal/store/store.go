// Package store persists the catalog, orders and seller accounts with gorm.
package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist (or is soft deleted).
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when an insert violates a uniqueness rule.
	ErrConflict = errors.New("store: conflict")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isDuplicate recognises unique violations across drivers, translated or not.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
