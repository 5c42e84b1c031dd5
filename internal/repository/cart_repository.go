package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

// ロック待ちがタイムアウトした
var ErrCartLocked = errors.New("cart is locked")

// セッションごとのカート保存先（Redis / メモリ）
type CartStore interface {
	// 無ければ空のカートを返す
	Get(ctx context.Context, sessionID string) (model.Cart, error)
	// 保存と同時にTTLを延長
	Save(ctx context.Context, cart model.Cart) error
	Clear(ctx context.Context, sessionID string) error

	// 同一セッションの更新を直列化する。返ってきたunlockは必ず呼ぶ。
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}
