package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

// unique制約違反（username / email）
var ErrDuplicate = errors.New("duplicate")

// 保存・取得を約束
// Find系は見つからない場合 (nil, nil) を返す。
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//管理画面用の一覧
	List(ctx context.Context) ([]model.User, error)
}
