package repository

import (
	"github.com/okian/dancefloor/internal/domain/model"
)

func notFound(op, what, id string) error {
	return model.NewKindf(op, model.ErrNotFound, "%s %q", what, id)
}

func unavailable(op string, err error) error {
	return model.WrapKind(op, model.ErrStorageUnavailable, err)
}
