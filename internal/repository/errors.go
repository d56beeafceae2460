package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrStaleStatus is returned by a ticket transition whose expected
	// status no longer matches the stored one.
	ErrStaleStatus = errors.New("repository: ticket status changed concurrently")
)

type rowScanner interface {
	Scan(dest ...any) error
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
