package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

// 会員登録の入力
type RegisterUserInput struct {
	Username string
	Email    string
	Password string
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(user model.User, now time.Time) (token string, expiresAt time.Time, err error)
}

// RegisterUserUsecaseは会員登録の処理。登録後はそのままログイン状態にする。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	issuer   AccessTokenIssuer
	clock    usecase.Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	issuer AccessTokenIssuer,
	clock usecase.Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		clock:    clock,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (AuthOutput, error) {
	username := validator.NormalizeHandle(in.Username)
	email := validator.NormalizeEmail(in.Email)

	if err := validator.ValidateRegister(username, email, in.Password); err != nil {
		return AuthOutput{}, &usecase.HTTPError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	// username / email の重複チェック
	existing, err := u.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return AuthOutput{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return AuthOutput{}, conflict(usecase.ErrDuplicateHandle)
	}
	existing, err = u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return AuthOutput{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return AuthOutput{}, conflict(usecase.ErrDuplicateEmail)
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthOutput{}, usecase.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.clock.Now()
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,         // ハッシュを保存（平文は保存しない）
		Role:         model.RoleUser, // 初期はUSER
		TokenVersion: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// DBへ保存（チェック後に同時登録された場合はunique制約で弾く）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthOutput{}, conflict(usecase.ErrDuplicateHandle)
		}
		return AuthOutput{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return issue(u.issuer, *user, now)
}

func conflict(sentinel error) error {
	return &usecase.HTTPError{Status: http.StatusConflict, Message: sentinel.Error(), Err: sentinel}
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

// bcryptでハッシュ化
func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 平文(plain)をbcryptで比較
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
