package runtime

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/TechXTT/biopull/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CloseCommitsAndReleases(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectClose()

	s, err := NewSession(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	// second Close is a no-op
	require.NoError(t, s.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_CloseJoinsErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("commit refused"))
	mock.ExpectClose()

	s, err := NewSession(context.Background(), db)
	require.NoError(t, err)

	err = s.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSession_BeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no tx"))

	_, err = NewSession(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "bio.db")}

	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)

	var one int
	require.NoError(t, s.Querier().QueryRowContext(context.Background(), "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
	require.NoError(t, s.Close())
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Driver: "oracle", Database: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownDriver))
}
