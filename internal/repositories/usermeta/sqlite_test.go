package usermeta

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pwdbox/pwdbox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE user_meta (
  id INTEGER PRIMARY KEY,
  master_hash TEXT NOT NULL,
  master_salt TEXT NOT NULL,
  question1 TEXT, answer1_hash TEXT, answer_salt1 TEXT,
  question2 TEXT, answer2_hash TEXT, answer_salt2 TEXT,
  question3 TEXT, answer3_hash TEXT, answer_salt3 TEXT
);
`)
	require.NoError(t, err)
	return db
}

func sampleMeta() *models.UserMeta {
	return &models.UserMeta{
		MasterHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		MasterSalt: "bWFzdGVyLXNhbHQ=",
		Question1:  "q1", Answer1Hash: "h1", AnswerSalt1: "s1",
		Question2: "q2", Answer2Hash: "h2", AnswerSalt2: "s2",
		Question3: "q3", Answer3Hash: "h3", AnswerSalt3: "s3",
	}
}

func TestGet_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	m, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestExists_SaveGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	ok, err := r.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Save(ctx, sampleMeta()))

	ok, err = r.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := r.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "bWFzdGVyLXNhbHQ=", m.MasterSalt)
	assert.True(t, m.HasRecovery())
}

func TestSave_ReplacesSingleton(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleMeta()))

	updated := sampleMeta()
	updated.MasterHash = "$argon2id$v=19$m=65536,t=3,p=4$bmV3$bmV3aGFzaA"
	updated.MasterSalt = "bmV3LXNhbHQ="
	require.NoError(t, r.Save(ctx, updated))

	// still exactly one row
	var count int
	require.NoError(t, r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_meta`).Scan(&count))
	assert.Equal(t, 1, count)

	m, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bmV3LXNhbHQ=", m.MasterSalt)
}

func TestSave_WithoutRecovery(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	meta := &models.UserMeta{MasterHash: "hash", MasterSalt: "salt"}
	require.NoError(t, r.Save(ctx, meta))

	m, err := r.Get(ctx)
	require.NoError(t, err)
	assert.False(t, m.HasRecovery())
	assert.Empty(t, m.Question1)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleMeta()))
	require.NoError(t, r.Delete(ctx))

	ok, err := r.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
