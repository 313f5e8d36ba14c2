package auth

import (
	"context"
	"errors"

	"bakery/internal/domain/model"
	"bakery/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// ログイン中ユーザーの取得とログアウト
type SessionUsecase struct {
	userRepo repository.UserRepository
}

func NewSessionUsecase(userRepo repository.UserRepository) *SessionUsecase {
	return &SessionUsecase{userRepo: userRepo}
}

func (u *SessionUsecase) Me(ctx context.Context, userID int64) (model.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return *user, nil
}

// token_versionを上げて発行済みJWTをすべて無効にする
func (u *SessionUsecase) Logout(ctx context.Context, userID int64) error {
	err := u.userRepo.IncrementTokenVersion(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
