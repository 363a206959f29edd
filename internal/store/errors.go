package store

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/rolodex/internal/contact"
)

// classify maps a storage failure to a typed error.
//
// Errors that already carry a Kind pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *contact.Error
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contact.E(contact.Timeout, op, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return contact.E(contact.NotFound, op, err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return contact.E(contact.PermissionDenied, op, err)
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return contact.E(contact.PendingOperation, op, err)
		case sqlite3.ErrConstraint:
			return contact.E(contact.InvalidArgument, op, err)
		case sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrAuth:
			return contact.E(contact.PermissionDenied, op, err)
		}
	}
	return contact.E(contact.IO, op, err)
}
