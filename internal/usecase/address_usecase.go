package usecase

import (
	"context"
	"net/http"

	repo "bakery/internal/repository"
)

// 保存済み住所の参照（作成はチェックアウト時に行う）
type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressOutput, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}

	out := make([]AddressOutput, 0, len(list))
	for _, a := range list {
		out = append(out, *toAddressOutput(a))
	}
	return out, nil
}
