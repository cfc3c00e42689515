// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"errors"

	"blackdonut/internal/models"

	"gorm.io/gorm"
)

const forbiddenNotOwner = "Forbidden: not the owner"

// notFound turns a missing-record error into a NOT_FOUND AppError and passes
// anything else through.
func notFound(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}
