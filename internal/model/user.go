// Package model はドメインモデルを定義する。
package model

import "time"

// User はマーケットプレイスの利用ユーザーを表す。
// PasswordHashにはbcryptハッシュを格納し、平文パスワードは保持しない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	CreatedAt    time.Time
}

// Session はユーザーごとのリフレッシュトークンセッションを表す。
// ユーザーにつき常に最大1レコード（user_idが主キー）であり、
// ログインおよびリフレッシュ成功のたびに全上書きされる。
// 古い値を提示したリフレッシュは必ず失敗する。
type Session struct {
	UserID                 string
	RefreshToken           string
	RefreshTokenExpiration time.Time
}

// BlockedUser はユーザー間のブロック関係を表す。
// blockerがblockedからのメッセージ受信を拒否する。
type BlockedUser struct {
	ID        int64
	BlockerID string
	BlockedID string
}

// ロール名の定義。アクセストークンのrolesクレームにそのまま載る。
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)
