package gormstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/okian/dancefloor/internal/domain/model"
)

// mapErr translates driver and ORM failures into domain error kinds.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var mErr *model.Error
	if errors.As(err, &mErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.WrapKind(op, model.ErrNotFound, err)
	}
	if unavailable(err) {
		return model.WrapKind(op, model.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// unavailable reports failures of the connection rather than of the query.
func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P: operator intervention
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}
	return false
}
