package usecase

import (
	"context"
	"errors"
	"net/http"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"
)

type WishlistUsecase struct {
	wishlist repo.WishlistRepository
	products repo.ProductRepository
}

func NewWishlistUsecase(wishlist repo.WishlistRepository, products repo.ProductRepository) *WishlistUsecase {
	return &WishlistUsecase{wishlist: wishlist, products: products}
}

func (u *WishlistUsecase) List(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	items, err := u.wishlist.ListByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}
	return items, nil
}

// 同じ商品を2回追加しても1件のまま
func (u *WishlistUsecase) Add(ctx context.Context, userID, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return internalError(err)
	}

	if err := u.wishlist.Add(ctx, userID, productID); err != nil {
		return internalError(err)
	}
	return nil
}

func (u *WishlistUsecase) Remove(ctx context.Context, userID, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	err := u.wishlist.Remove(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return internalError(err)
	}
	return nil
}
