package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"
	auth "bakery/internal/usecase/auth_usecase"
)

// 配達員向けの操作（bearerトークンで認証済み）
type DeliveryUsecase struct {
	tx       repo.TransactionManager
	verifier auth.PasswordVerifier
	issuer   *auth.DeliveryTokenIssuer
	limiter  auth.Limiter
	clock    auth.Clock
}

func NewDeliveryUsecase(
	tx repo.TransactionManager,
	verifier auth.PasswordVerifier,
	issuer *auth.DeliveryTokenIssuer,
	limiter auth.Limiter,
	clock auth.Clock,
) *DeliveryUsecase {
	return &DeliveryUsecase{
		tx:       tx,
		verifier: verifier,
		issuer:   issuer,
		limiter:  limiter,
		clock:    clock,
	}
}

type DeliveryLoginOutput struct {
	Token     string        `json:"token"`
	ExpiresIn int           `json:"expires_in"`
	Partner   PartnerOutput `json:"partner"`
}

// ログイン時は担当中の注文数から状態を決め直す（0件ならAVAILABLE）
func (u *DeliveryUsecase) Login(ctx context.Context, phone, password string) (DeliveryLoginOutput, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return DeliveryLoginOutput{}, NewHTTPError(http.StatusBadRequest, "phone and password required")
	}

	if err := auth.CheckLimit(ctx, u.limiter, auth.DeliveryLoginKey(phone)); err != nil {
		return DeliveryLoginOutput{}, mapAuthError(err)
	}

	now := u.clock.Now()
	var out DeliveryLoginOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.DeliveryPartners().FindByPhone(ctx, phone)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		if err != nil {
			return internalError(err)
		}
		if !u.verifier.Verify(password, p.PasswordHash) {
			return NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}

		if err := r.DeliveryPartners().TouchLastLogin(ctx, p.ID, now); err != nil {
			return internalError(err)
		}
		if err := recomputePartnerAvailability(ctx, r, p.ID, true); err != nil {
			return err
		}

		p, err = r.DeliveryPartners().FindByID(ctx, p.ID)
		if err != nil {
			return internalError(err)
		}
		active, err := r.Orders().CountByDeliveryPartner(ctx, p.ID, model.ActiveDeliveryStatuses)
		if err != nil {
			return internalError(err)
		}

		token, exp, err := u.issuer.Issue(p, now)
		if err != nil {
			return internalError(err)
		}
		out = DeliveryLoginOutput{
			Token:     token,
			ExpiresIn: int(exp.Sub(now).Seconds()),
			Partner:   toPartnerOutput(p, active),
		}
		return nil
	})
	if err != nil {
		return DeliveryLoginOutput{}, err
	}
	return out, nil
}

// 担当中の注文がなければOFFLINEにする（あればBUSYのまま）
func (u *DeliveryUsecase) Logout(ctx context.Context, partnerID int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.DeliveryPartners().FindByIDForUpdate(ctx, partnerID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if err != nil {
			return internalError(err)
		}
		active, err := r.Orders().CountByDeliveryPartner(ctx, partnerID, model.ActiveDeliveryStatuses)
		if err != nil {
			return internalError(err)
		}
		if active > 0 || p.Status == model.PartnerStatusOffline {
			return nil
		}
		if err := r.DeliveryPartners().UpdateStatus(ctx, partnerID, model.PartnerStatusOffline); err != nil {
			return internalError(err)
		}
		return nil
	})
}

func (u *DeliveryUsecase) Me(ctx context.Context, partnerID int64) (PartnerOutput, error) {
	var out PartnerOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.DeliveryPartners().FindByID(ctx, partnerID)
		if errors.Is(err, repo.ErrNotFound) {
			//トークン発行後に削除された
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if err != nil {
			return internalError(err)
		}
		active, err := r.Orders().CountByDeliveryPartner(ctx, partnerID, model.ActiveDeliveryStatuses)
		if err != nil {
			return internalError(err)
		}
		out = toPartnerOutput(p, active)
		return nil
	})
	if err != nil {
		return PartnerOutput{}, err
	}
	return out, nil
}

var completedDeliveryStatuses = []model.OrderStatus{model.OrderStatusDelivered}

// scope: active（既定）| completed
func (u *DeliveryUsecase) ListOrders(ctx context.Context, partnerID int64, scope string) ([]OrderOutput, error) {
	statuses := model.ActiveDeliveryStatuses
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "", "active":
	case "completed":
		statuses = completedDeliveryStatuses
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "invalid scope")
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByDeliveryPartner(ctx, partnerID, statuses)
		if err != nil {
			return internalError(err)
		}
		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			out, err := loadOrderDetail(ctx, r, o)
			if err != nil {
				return err
			}
			outs = append(outs, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outs, nil
}

type DeliveryUpdateStatusInput struct {
	Status string
	Note   string
}

// 担当配達員による厳格な遷移（ASSIGNED→PICKED_UP→OUT_FOR_DELIVERY→DELIVERED）
func (u *DeliveryUsecase) UpdateStatus(ctx context.Context, partnerID int64, orderID int64, in DeliveryUpdateStatusInput) (OrderOutput, error) {
	if partnerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	to := model.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if to == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "status required")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		res, err := transitionOrder(ctx, r, orderID, to, strings.TrimSpace(in.Note),
			Actor{Role: ActorDeliveryPartner, ID: partnerID}, u.clock.Now())
		if err != nil {
			return err
		}
		out, err = loadOrderDetail(ctx, r, res.After)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// auth パッケージのエラーをHTTPErrorへ
func mapAuthError(err error) error {
	var rl *auth.RateLimitedError
	switch {
	case errors.As(err, &rl):
		return newRateLimitedError(rl.RetryAfter)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrUserInactive):
		return NewHTTPError(http.StatusForbidden, "user is inactive")
	default:
		return internalError(err)
	}
}
