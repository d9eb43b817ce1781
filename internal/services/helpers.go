package services

import (
	"database/sql"
	stderrors "errors"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
)

// repoError maps a repository failure to an AppError. Missing rows become
// NOT_FOUND for the given resource; anything else is logged as internal.
func repoError(log *logger.Logger, err error, resource string, id any) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError(resource, id)
	}
	log.Error("%s repository failure: %v", resource, err)
	return errors.NewInternalError(err)
}
