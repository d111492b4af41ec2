package model

import "time"

// Listing は出品を表す。
// PhotosはDB上ではjsonbの文字列配列として保持される。
type Listing struct {
	ID          int64
	UserID      string
	CategoryID  int64
	Title       string
	Description string
	Price       float64
	Brand       string
	Model       string
	Year        *int
	Mileage     *int
	Location    string
	Photos      []string
	CreatedAt   time.Time
}

// ListingFilter は出品検索の絞り込み条件を表す。
// nilのフィールドは条件として適用されない。
type ListingFilter struct {
	CategoryID *int64
	Brand      *string
	Model      *string
	MinYear    *int
	MaxYear    *int
	MinPrice   *float64
	MaxPrice   *float64
	MaxMileage *int
	Location   *string
	SearchText *string
}

// Category は出品カテゴリを表す。
type Category struct {
	ID   int64
	Name string
}

// Message は出品に紐づくユーザー間メッセージを表す。
type Message struct {
	ID         int64
	SenderID   string
	ReceiverID string
	ListingID  int64
	Content    string
	SentAt     time.Time
	IsRead     bool
}
