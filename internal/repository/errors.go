package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// translate turns constraint violations into business errors. Anything else
// is returned unchanged.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return domain.Conflictf(domain.DuplicateTripReason)
	case pgCheckViolation:
		return domain.Validationf("booking violates constraint %s", pgErr.ConstraintName)
	}
	return err
}

// wrapStoreError keeps business errors bare so callers can map them by kind.
// Infrastructure errors get the operation prefix.
func wrapStoreError(op string, err error) error {
	if terr := translate(err); domain.IsBusiness(terr) {
		return terr
	}
	return fmt.Errorf("%s: %w", op, err)
}
