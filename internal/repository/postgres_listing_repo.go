package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// PostgresListingRepo はPostgreSQLを使用した出品リポジトリ。
type PostgresListingRepo struct {
	db *sql.DB
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

const listingColumns = `listing_id, user_id, category_id, title, description, price,
	 brand, model, year, mileage, location, photos, created_at`

// scanListing は1行分の出品データをスキャンする。photosはJSONB配列から復元する。
func scanListing(scanner interface{ Scan(...any) error }) (*model.Listing, error) {
	listing := &model.Listing{}
	var photosJSON []byte
	err := scanner.Scan(
		&listing.ID, &listing.UserID, &listing.CategoryID, &listing.Title,
		&listing.Description, &listing.Price, &listing.Brand, &listing.Model,
		&listing.Year, &listing.Mileage, &listing.Location, &photosJSON,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photosJSON, &listing.Photos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photos: %w", err)
	}
	return listing, nil
}

// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindByID(ctx context.Context, id int64) (*model.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE listing_id = $1`,
		id,
	)
	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}
	return listing, nil
}

// Create は出品を作成し、採番されたIDをlisting.IDに設定する。
func (r *PostgresListingRepo) Create(ctx context.Context, listing *model.Listing) error {
	photosJSON, err := marshalPhotos(listing.Photos)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO listings (user_id, category_id, title, description, price,
		 brand, model, year, mileage, location, photos, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING listing_id`,
		listing.UserID, listing.CategoryID, listing.Title, listing.Description,
		listing.Price, listing.Brand, listing.Model, listing.Year, listing.Mileage,
		listing.Location, photosJSON, listing.CreatedAt,
	).Scan(&listing.ID)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// Update は出品情報を更新する。
func (r *PostgresListingRepo) Update(ctx context.Context, listing *model.Listing) error {
	photosJSON, err := marshalPhotos(listing.Photos)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings
		 SET category_id = $2, title = $3, description = $4, price = $5,
		     brand = $6, model = $7, year = $8, mileage = $9, location = $10,
		     photos = $11
		 WHERE listing_id = $1`,
		listing.ID, listing.CategoryID, listing.Title, listing.Description,
		listing.Price, listing.Brand, listing.Model, listing.Year, listing.Mileage,
		listing.Location, photosJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing not found: %d", listing.ID)
	}
	return nil
}

// UpdatePhotos は出品の写真URL一覧のみを更新する。
func (r *PostgresListingRepo) UpdatePhotos(ctx context.Context, listingID int64, photos []string) error {
	photosJSON, err := marshalPhotos(photos)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET photos = $2 WHERE listing_id = $1`,
		listingID, photosJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing photos: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing not found: %d", listingID)
	}
	return nil
}

// Delete は指定IDの出品を削除する。
func (r *PostgresListingRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM listings WHERE listing_id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing not found: %d", id)
	}
	return nil
}

// ListByUserID は指定ユーザーの出品一覧を作成日時降順で返す。
func (r *PostgresListingRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings by user: %w", err)
	}
	return collectListings(rows)
}

// ListAll は全出品を作成日時降順で返す。
func (r *PostgresListingRepo) ListAll(ctx context.Context) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return collectListings(rows)
}

// ListByFilter は条件に一致する出品を作成日時降順で返す。
// filterのnilフィールドは条件に含めない。検索テキストはturkish辞書の
// 全文検索（websearch_to_tsquery）で照合する。
func (r *PostgresListingRepo) ListByFilter(ctx context.Context, filter *model.ListingFilter) ([]*model.Listing, error) {
	var conditions []string
	var args []any

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.CategoryID != nil {
		addCondition("category_id = $%d", *filter.CategoryID)
	}
	if filter.MinPrice != nil {
		addCondition("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addCondition("price <= $%d", *filter.MaxPrice)
	}
	if filter.Brand != nil {
		addCondition("brand ILIKE $%d", *filter.Brand)
	}
	if filter.Model != nil {
		addCondition("model ILIKE $%d", *filter.Model)
	}
	if filter.MinYear != nil {
		addCondition("year >= $%d", *filter.MinYear)
	}
	if filter.MaxYear != nil {
		addCondition("year <= $%d", *filter.MaxYear)
	}
	if filter.MaxMileage != nil {
		addCondition("mileage <= $%d", *filter.MaxMileage)
	}
	if filter.Location != nil {
		addCondition("location ILIKE $%d", *filter.Location)
	}
	if filter.SearchText != nil {
		addCondition(
			"to_tsvector('turkish', title || ' ' || description) @@ websearch_to_tsquery('turkish', $%d)",
			*filter.SearchText,
		)
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings by filter: %w", err)
	}
	return collectListings(rows)
}

func collectListings(rows *sql.Rows) ([]*model.Listing, error) {
	defer rows.Close()

	var listings []*model.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return listings, nil
}

func marshalPhotos(photos []string) ([]byte, error) {
	if photos == nil {
		photos = []string{}
	}
	data, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal photos: %w", err)
	}
	return data, nil
}

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
