package repository

import (
	"bakery/internal/domain/model"
	"context"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//ユーザーが持つ住所一覧を返す
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	//(user, 宛名, 住所, 郵便番号)が一致する住所
	FindMatching(ctx context.Context, userID int64, fullName, addressLine, pincode string) (model.Address, error)
}
