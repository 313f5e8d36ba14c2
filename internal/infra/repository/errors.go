package repository

import (
	"errors"

	repo "bakery/internal/repository"

	"gorm.io/gorm"
)

// gormのエラーをrepositoryの番兵エラーへ
// gorm.Config.TranslateError が有効な前提
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repo.ErrDuplicate
	default:
		return err
	}
}
