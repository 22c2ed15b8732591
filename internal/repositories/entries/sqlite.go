package entries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/pwdbox/pwdbox/internal/dbx"
	"github.com/pwdbox/pwdbox/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry) (int64, error) {
	query := `INSERT INTO password_entries (software, account, encrypted_password, nonce, notes)
		VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		e.Software, e.Account, e.EncryptedPassword, e.Nonce, nullable(e.Notes))
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Entry, error) {
	query := `SELECT id, software, account, encrypted_password, nonce, notes
		FROM password_entries ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT id, software, account, encrypted_password, nonce, notes
		FROM password_entries WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	e := &models.Entry{}
	var notes sql.NullString
	err := row.Scan(&e.ID, &e.Software, &e.Account, &e.EncryptedPassword, &e.Nonce, &notes)
	if err == sql.ErrNoRows {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	e.Notes = notes.String
	return e, nil
}

// Update expects exactly one row to be affected; zero rows means the id
// does not exist.
func (r *SQLiteRepository) Update(ctx context.Context, e *models.Entry) error {
	query := `UPDATE password_entries
		SET software = ?, account = ?, encrypted_password = ?, nonce = ?, notes = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		e.Software, e.Account, e.EncryptedPassword, e.Nonce, nullable(e.Notes), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Search(ctx context.Context, query string) ([]models.Entry, error) {
	// SQLite LIKE is case-insensitive for ASCII by default.
	q := `SELECT id, software, account, encrypted_password, nonce, notes
		FROM password_entries
		WHERE software LIKE ? OR account LIKE ? OR notes LIKE ?
		ORDER BY id`
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, q, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_entries`)
	if err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM password_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func scanEntries(rows *sql.Rows) ([]models.Entry, error) {
	var result []models.Entry
	for rows.Next() {
		var item models.Entry
		var notes sql.NullString
		if err := rows.Scan(&item.ID, &item.Software, &item.Account,
			&item.EncryptedPassword, &item.Nonce, &notes); err != nil {
			return nil, err
		}
		item.Notes = notes.String
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
