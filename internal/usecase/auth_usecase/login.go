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
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Username string
	Password string
}

// token 形（JwtAccessToken相当）
type JwtAccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// handlerがJSONにして返す
type AuthOutput struct {
	User  UserDTO        `json:"user"`
	Token JwtAccessToken `json:"token"`
}

// ユーザー名またはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    usecase.Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock usecase.Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (AuthOutput, error) {
	username := validator.NormalizeHandle(in.Username)
	if err := validator.ValidateLogin(username, in.Password); err != nil {
		return AuthOutput{}, &usecase.HTTPError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	//ユーザー名でユーザー取得
	user, err := u.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return AuthOutput{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return AuthOutput{}, unauthorized()
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return AuthOutput{}, unauthorized()
	}

	return issue(u.issuer, *user, u.clock.Now())
}

func unauthorized() error {
	return &usecase.HTTPError{Status: http.StatusUnauthorized, Message: ErrInvalidCredentials.Error(), Err: ErrInvalidCredentials}
}

// AccessToken発行（passwordは返さない）
func issue(issuer AccessTokenIssuer, user model.User, now time.Time) (AuthOutput, error) {
	accessToken, exp, err := issuer.Issue(user, now)
	if err != nil {
		return AuthOutput{}, usecase.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return AuthOutput{
		User: UserDTO{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     string(user.Role),
		},
		Token: JwtAccessToken{
			AccessToken:  accessToken,
			ExpiresIn:    int(exp.Sub(now).Seconds()),
			TokenVersion: user.TokenVersion,
		},
	}, nil
}
