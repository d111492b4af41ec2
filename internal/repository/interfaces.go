// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// ErrRotationConflict はリフレッシュトークンのローテーションで、
// 提示されたトークンがすでに保存値と一致しなかった場合に返される。
// 並行リフレッシュで敗者となったリクエストがこのエラーを受け取る。
var ErrRotationConflict = errors.New("refresh token rotation conflict")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーと初期ロールを同一トランザクションで作成する。
	Create(ctx context.Context, user *model.User, roles []string) error

	// Update はユーザーのプロフィール情報（email, name, phone）を更新する。
	Update(ctx context.Context, user *model.User) error

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// FindRolesByID は指定ユーザーのロール一覧を返す。
	FindRolesByID(ctx context.Context, userID string) ([]string, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するuser_roles、sessions、listings等はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はリフレッシュトークンセッションの永続化インターフェース。
// ユーザーごとに最大1件のセッションを保持する。
type SessionRepository interface {
	// FindByUserID は指定ユーザーのセッションを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Session, error)

	// Upsert はセッションを冪等に保存する。既存セッションは上書きされる。
	Upsert(ctx context.Context, session *model.Session) error

	// Rotate は保存中のリフレッシュトークンがcurrentTokenと一致する場合のみ
	// 新しいトークンに置き換える。一致しない場合はErrRotationConflictを返す。
	Rotate(ctx context.Context, session *model.Session, currentToken string) error

	// DeleteByUserID は指定ユーザーのセッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired は有効期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ListingRepository は出品データの永続化インターフェース。
type ListingRepository interface {
	// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Listing, error)

	// Create は出品を作成し、採番されたIDをlisting.IDに設定する。
	Create(ctx context.Context, listing *model.Listing) error

	// Update は出品情報を更新する。
	Update(ctx context.Context, listing *model.Listing) error

	// UpdatePhotos は出品の写真URL一覧のみを更新する。
	UpdatePhotos(ctx context.Context, listingID int64, photos []string) error

	// Delete は指定IDの出品を削除する。
	Delete(ctx context.Context, id int64) error

	// ListByUserID は指定ユーザーの出品一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Listing, error)

	// ListAll は全出品を作成日時降順で返す。
	ListAll(ctx context.Context) ([]*model.Listing, error)

	// ListByFilter は条件に一致する出品を作成日時降順で返す。
	// filterの各フィールドはnilの場合条件に含めない。
	ListByFilter(ctx context.Context, filter *model.ListingFilter) ([]*model.Listing, error)
}

// CategoryRepository はカテゴリの永続化インターフェース。
type CategoryRepository interface {
	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Category, error)

	// FindByName はカテゴリ名で検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Category, error)

	// Create はカテゴリを作成し、採番されたIDをcategory.IDに設定する。
	Create(ctx context.Context, category *model.Category) error

	// Update はカテゴリ名を更新する。
	Update(ctx context.Context, category *model.Category) error

	// Delete は指定IDのカテゴリを削除する。
	Delete(ctx context.Context, id int64) error

	// ListAll は全カテゴリをID昇順で返す。
	ListAll(ctx context.Context) ([]*model.Category, error)
}

// MessageRepository はメッセージの永続化インターフェース。
type MessageRepository interface {
	// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Message, error)

	// Create はメッセージを作成し、採番されたIDをmessage.IDに設定する。
	Create(ctx context.Context, message *model.Message) error

	// ListByListingAndUser は指定出品について、userIDが送信者または受信者である
	// メッセージを送信日時昇順で返す。
	ListByListingAndUser(ctx context.Context, listingID int64, userID string) ([]*model.Message, error)

	// MarkRead は指定メッセージを既読にする。
	MarkRead(ctx context.Context, id int64) error

	// DeleteByListingAndUser は指定出品についてuserIDが関与する全メッセージを削除し、
	// 削除件数を返す。
	DeleteByListingAndUser(ctx context.Context, listingID int64, userID string) (int64, error)
}

// BlockedUserRepository はユーザーブロックリストの永続化インターフェース。
type BlockedUserRepository interface {
	// Exists はblockerがblockedをブロックしているかを返す。
	Exists(ctx context.Context, blockerID, blockedID string) (bool, error)

	// Create はブロック関係を作成する。すでに存在する場合は何もしない。
	Create(ctx context.Context, blockerID, blockedID string) error
}
