package usecase

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// handlerでJSONにするエラー。Errに元の原因（センチネル）を持つ。
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// センチネルをそのままメッセージにする
func newSentinelError(status int, sentinel error) error {
	return &HTTPError{
		Status:  status,
		Message: sentinel.Error(),
		Err:     sentinel,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

var (
	// 404 カタログに無い商品
	ErrUnknownProduct = errors.New("unknown product")
	// 400 空のカートで注文
	ErrEmptyCart = errors.New("cart is empty")
	// 401 ログイン中のユーザーが消えている
	ErrIdentityNotFound = errors.New("user not found, please log in again")
	// 409 登録の重複
	ErrDuplicateHandle = errors.New("username already exists")
	ErrDuplicateEmail  = errors.New("email already exists")
	// 500 注文の保存に失敗（カートはそのまま）
	ErrPersistence = errors.New("checkout failed, please retry")
	// レシート送信の失敗（注文には影響しない）
	ErrNotificationFailure = errors.New("receipt notification failed")
	// 403 管理者以外
	ErrForbidden = errors.New("forbidden")
	// 409 同じセッションの処理中
	ErrCartBusy = errors.New("cart is busy, please retry")
)

// テストなどでloggerを渡さない場合
func loggerOrDiscard(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func internalError(message string, err error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: message, Err: err}
}
