package auth_test

import (
	"context"
	"testing"
	"time"

	"bakery/internal/domain/model"
	"bakery/internal/ratelimit"
	"bakery/internal/repository"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// Mock: PasswordResetTokenRepository
// =====================

type MockResetTokenRepository struct {
	mock.Mock
}

func (m *MockResetTokenRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockResetTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	args := m.Called(ctx, tokenHash)
	t, _ := args.Get(0).(*model.PasswordResetToken)
	return t, args.Error(1)
}

func (m *MockResetTokenRepository) MarkUsed(ctx context.Context, tokenID int64, usedAt time.Time) error {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Error(0)
}

func (m *MockResetTokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// tx内ではUsers/PasswordResetTokensだけ使う
type txStub struct {
	repository.TxRepos
	users  repository.UserRepository
	tokens repository.PasswordResetTokenRepository
}

func (s txStub) Users() repository.UserRepository { return s.users }
func (s txStub) PasswordResetTokens() repository.PasswordResetTokenRepository {
	return s.tokens
}

type txManagerStub struct {
	repos txStub
}

func (m txManagerStub) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	return fn(m.repos)
}

// =====================
// Helper
// =====================

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type allowAll struct{}

func (allowAll) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, nil
}

type denyAll struct{ retry time.Duration }

func (d denyAll) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: false, RetryAfter: d.retry}, nil
}

type recordingMailer struct {
	to   string
	link string
}

func (r *recordingMailer) PasswordReset(ctx context.Context, to string, name string, link string) error {
	r.to = to
	r.link = link
	return nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(b)
}
