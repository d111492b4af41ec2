// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, listing, message, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserAlreadyExists    = "USER_ALREADY_EXISTS"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeInvalidPassword      = "INVALID_PASSWORD"
	ErrCodePasswordsDoNotMatch  = "PASSWORDS_DO_NOT_MATCH"
	ErrCodeUserBlocked          = "USER_BLOCKED"
	ErrCodeCannotBlockSelf      = "CANNOT_BLOCK_SELF"
	ErrCodeTokenExpired         = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid         = "TOKEN_INVALID"
	ErrCodeTokenGeneration      = "TOKEN_GENERATION_FAILED"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeListingNotFound      = "LISTING_NOT_FOUND"
	ErrCodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrCodeCategoryExists       = "CATEGORY_ALREADY_EXISTS"
	ErrCodeMessageNotFound      = "MESSAGE_NOT_FOUND"
	ErrCodeInvalidMessage       = "INVALID_MESSAGE_TARGET"
	ErrCodeInvalidPhotoURL      = "INVALID_PHOTO_URL"
	ErrCodePhotoExists          = "PHOTO_ALREADY_EXISTS"
	ErrCodePhotoNotFound        = "PHOTO_NOT_FOUND"
)

// NewUserAlreadyExistsError はメールアドレス重複エラーを生成する。
func NewUserAlreadyExistsError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "auth",
		Action:   "別のメールアドレスで登録するか、ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス不明とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidPasswordError は現在のパスワード不一致エラーを生成する。
func NewInvalidPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPassword,
		Message:  "現在のパスワードが正しくありません。",
		Category: "auth",
		Action:   "現在のパスワードを確認して再度お試しください。",
	}
}

// NewPasswordsDoNotMatchError は新パスワード確認不一致エラーを生成する。
func NewPasswordsDoNotMatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordsDoNotMatch,
		Message:  "新しいパスワードと確認用パスワードが一致しません。",
		Category: "validation",
		Action:   "同じパスワードを2回入力してください。",
	}
}

// NewUserBlockedError はブロック関連のエラーを生成する。
func NewUserBlockedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeUserBlocked,
		Message:  message,
		Category: "auth",
		Action:   "ブロック状態を確認してください。",
	}
}

// NewCannotBlockSelfError は自分自身のブロックを拒否するエラーを生成する。
func NewCannotBlockSelfError() *APIError {
	return &APIError{
		Code:     ErrCodeCannotBlockSelf,
		Message:  "自分自身をブロックすることはできません。",
		Category: "validation",
		Action:   "ブロック対象のユーザーIDを確認してください。",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
// 署名は正当だが有効期限を過ぎている場合にのみ使用する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "トークンをリフレッシュするか、再度ログインしてください。",
	}
}

// NewTokenInvalidError はトークン不正エラーを生成する。
// 署名不一致・構造不正・ローテーション済みトークンの提示をすべて含む。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "トークンが不正です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewTokenGenerationError はトークン生成基盤エラーを生成する。
func NewTokenGenerationError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenGeneration,
		Message:  "トークンの生成に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewAuthenticationFailedError は認証ヘッダー処理中の失敗エラーを生成する。
func NewAuthenticationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthenticationFailed,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "必要な権限を持つアカウントでログインしてください。",
	}
}

// NewListingNotFoundError は出品未検出エラーを生成する。
// 所有者以外による更新・削除の試行にも同じエラーを返す（存在の秘匿）。
func NewListingNotFoundError(listingID int64) *APIError {
	return &APIError{
		Code:     ErrCodeListingNotFound,
		Message:  fmt.Sprintf("指定された出品が見つかりません: %d", listingID),
		Category: "listing",
		Action:   "出品IDを確認してください。",
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError(categoryID int64) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカテゴリが見つかりません: %d", categoryID),
		Category: "listing",
		Action:   "カテゴリIDを確認してください。",
	}
}

// NewCategoryExistsError はカテゴリ名重複エラーを生成する。
func NewCategoryExistsError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryExists,
		Message:  fmt.Sprintf("同名のカテゴリが既に存在します: %s", name),
		Category: "listing",
		Action:   "別のカテゴリ名を指定してください。",
	}
}

// NewMessageNotFoundError はメッセージ未検出エラーを生成する。
func NewMessageNotFoundError(listingID int64) *APIError {
	return &APIError{
		Code:     ErrCodeMessageNotFound,
		Message:  fmt.Sprintf("指定された出品のメッセージが見つかりません: %d", listingID),
		Category: "message",
		Action:   "出品IDを確認してください。",
	}
}

// NewInvalidMessageError は不正なメッセージ送信先エラーを生成する。
func NewInvalidMessageError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMessage,
		Message:  message,
		Category: "message",
		Action:   "送信先を確認してください。",
	}
}

// NewInvalidPhotoURLError は写真URL不正エラーを生成する。
func NewInvalidPhotoURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPhotoURL,
		Message:  fmt.Sprintf("無効な写真URLです: %s", reason),
		Category: "validation",
		Action:   "http/httpsで始まり .png .jpg .jpeg .gif のいずれかで終わるURLを指定してください。",
	}
}

// NewPhotoExistsError は写真URL重複エラーを生成する。
func NewPhotoExistsError(url string) *APIError {
	return &APIError{
		Code:     ErrCodePhotoExists,
		Message:  fmt.Sprintf("この写真URLは既に登録されています: %s", url),
		Category: "validation",
		Action:   "別の写真URLを指定してください。",
	}
}

// NewPhotoNotFoundError は写真URL未検出エラーを生成する。
func NewPhotoNotFoundError(url string) *APIError {
	return &APIError{
		Code:     ErrCodePhotoNotFound,
		Message:  fmt.Sprintf("指定された写真URLは登録されていません: %s", url),
		Category: "validation",
		Action:   "出品に登録済みの写真URLを指定してください。",
	}
}
