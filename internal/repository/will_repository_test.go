package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"willtank/internal/model"
)

func newGormWithMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestWillRepository_FindByIDForUser(t *testing.T) {
	id, userID := uuid.New(), uuid.New()
	query := `SELECT \* FROM "wills" WHERE \(?id = \$1 AND user_id = \$2\)?`

	t.Run("owner", func(t *testing.T) {
		db, mock := newGormWithMock(t)
		mock.ExpectQuery(query).
			WithArgs(id, userID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "status"}).
				AddRow(id.String(), userID.String(), "Family Will", "draft"))

		will, err := NewWillRepository(db).FindByIDForUser(context.Background(), id, userID)
		require.NoError(t, err)
		assert.Equal(t, id, will.ID)
		assert.Equal(t, userID, will.UserID)
		assert.Equal(t, model.WillDraft, will.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other user", func(t *testing.T) {
		db, mock := newGormWithMock(t)
		stranger := uuid.New()
		mock.ExpectQuery(query).
			WithArgs(id, stranger, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewWillRepository(db).FindByIDForUser(context.Background(), id, stranger)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWillRepository_DeleteCascade(t *testing.T) {
	id, userID := uuid.New(), uuid.New()

	expectChildren := func(mock sqlmock.Sqlmock) {
		mock.ExpectExec(`DELETE FROM "will_documents" WHERE will_id = \$1`).
			WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM "beneficiaries" WHERE will_id = \$1`).
			WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`DELETE FROM "assets" WHERE will_id = \$1`).
			WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	willDelete := `DELETE FROM "wills" WHERE \(?id = \$1 AND user_id = \$2\)?`

	t.Run("removes children and will in one transaction", func(t *testing.T) {
		db, mock := newGormWithMock(t)
		mock.ExpectBegin()
		expectChildren(mock)
		mock.ExpectExec(willDelete).WithArgs(id, userID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewWillRepository(db).DeleteCascade(context.Background(), id, userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not owned rolls back", func(t *testing.T) {
		db, mock := newGormWithMock(t)
		mock.ExpectBegin()
		expectChildren(mock)
		mock.ExpectExec(willDelete).WithArgs(id, userID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := NewWillRepository(db).DeleteCascade(context.Background(), id, userID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("child failure rolls back", func(t *testing.T) {
		db, mock := newGormWithMock(t)
		boom := errors.New("connection reset")
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "will_documents"`).WithArgs(id).WillReturnError(boom)
		mock.ExpectRollback()

		err := NewWillRepository(db).DeleteCascade(context.Background(), id, userID)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAssetRepository_FindByIDForUserJoinsOwner(t *testing.T) {
	db, mock := newGormWithMock(t)
	id, willID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "assets" JOIN wills ON wills.id = assets.will_id WHERE \(?assets.id = \$1 AND wills.user_id = \$2\)?`).
		WithArgs(id, userID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "will_id", "name"}).
			AddRow(id.String(), willID.String(), "House"))

	a, err := NewAssetRepository(db).FindByIDForUser(context.Background(), id, userID)
	require.NoError(t, err)
	assert.Equal(t, willID, a.WillID)
	assert.Equal(t, "House", a.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
