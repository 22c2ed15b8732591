package usermeta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pwdbox/pwdbox/internal/dbx"
	"github.com/pwdbox/pwdbox/internal/models"
)

// metaRowID is the fixed key of the singleton row.
const metaRowID = 1

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.UserMeta, error) {
	query := `SELECT id, master_hash, master_salt,
			question1, answer1_hash, answer_salt1,
			question2, answer2_hash, answer_salt2,
			question3, answer3_hash, answer_salt3
		FROM user_meta WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, metaRowID)

	m := &models.UserMeta{}
	var q1, a1h, a1s, q2, a2h, a2s, q3, a3h, a3s sql.NullString
	err := row.Scan(&m.ID, &m.MasterHash, &m.MasterSalt,
		&q1, &a1h, &a1s, &q2, &a2h, &a2s, &q3, &a3h, &a3s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user meta: %w", err)
	}

	m.Question1, m.Answer1Hash, m.AnswerSalt1 = q1.String, a1h.String, a1s.String
	m.Question2, m.Answer2Hash, m.AnswerSalt2 = q2.String, a2h.String, a2s.String
	m.Question3, m.Answer3Hash, m.AnswerSalt3 = q3.String, a3h.String, a3s.String
	return m, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_meta WHERE id = ?`, metaRowID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check user meta: %w", err)
	}
	return count > 0, nil
}

// Save inserts or replaces the singleton row. The id is forced to the fixed
// key regardless of what the caller put in meta.ID.
func (r *SQLiteRepository) Save(ctx context.Context, meta *models.UserMeta) error {
	query := `INSERT OR REPLACE INTO user_meta (
			id, master_hash, master_salt,
			question1, answer1_hash, answer_salt1,
			question2, answer2_hash, answer_salt2,
			question3, answer3_hash, answer_salt3
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, metaRowID,
		meta.MasterHash, meta.MasterSalt,
		nullable(meta.Question1), nullable(meta.Answer1Hash), nullable(meta.AnswerSalt1),
		nullable(meta.Question2), nullable(meta.Answer2Hash), nullable(meta.AnswerSalt2),
		nullable(meta.Question3), nullable(meta.Answer3Hash), nullable(meta.AnswerSalt3))
	if err != nil {
		return fmt.Errorf("failed to save user meta: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_meta`)
	if err != nil {
		return fmt.Errorf("failed to delete user meta: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
