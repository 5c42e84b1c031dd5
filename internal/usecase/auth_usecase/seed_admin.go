package auth

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/validator"
)

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// 管理者が居なければ作る。作った場合はtrue。
// 既に同名ユーザーが居る場合は何もしない（ロールも変えない）。
func EnsureAdmin(ctx context.Context, userRepo repository.UserRepository, hasher PasswordHasher, now time.Time, seed AdminSeed) (bool, error) {
	username := validator.NormalizeHandle(seed.Username)
	if username == "" || seed.Password == "" {
		return false, nil
	}

	existing, err := userRepo.FindByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("find admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	hashed, err := hasher.Hash(seed.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &model.User{
		Username:     username,
		Email:        validator.NormalizeEmail(seed.Email),
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
