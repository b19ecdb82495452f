package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolaware/escola-api/internal/models"
)

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "user_id", "registration", "expertise", "active", "created_at", "updated_at", "full_name", "email"}).
		AddRow("t1", "sch1", "u1", "REG-001", nil, true, time.Now(), time.Now(), "Ana Souza", "ana@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.id, t.school_id, t.user_id, t.registration, t.expertise, t.active, t.created_at, t.updated_at, u.full_name, u.email FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.school_id = $1 ORDER BY u.full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("sch1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.school_id = $1")).
		WithArgs("sch1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.TeacherFilter{SchoolID: "sch1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ana Souza", list[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteWithSections(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sections WHERE teacher_id = $1 AND school_id = $2")).
		WithArgs("t1", "sch1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teachers WHERE id = $1 AND school_id = $2")).
		WithArgs("t1", "sch1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithSections(context.Background(), "sch1", "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteWithSectionsRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sections WHERE teacher_id = $1 AND school_id = $2")).
		WithArgs("t1", "sch1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.DeleteWithSections(context.Background(), "sch1", "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete teacher sections")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExistsByRegistration(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE school_id = $1 AND registration = $2 LIMIT 1")).
		WithArgs("sch1", "REG-001").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByRegistration(context.Background(), "sch1", "REG-001", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListClampsOversizedLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "user_id", "registration", "expertise", "active", "created_at", "updated_at", "full_name", "email"}).
		AddRow("t1", "sch1", "u1", "REG-001", nil, true, time.Now(), time.Now(), "Ana Souza", "ana@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.id, t.school_id, t.user_id, t.registration, t.expertise, t.active, t.created_at, t.updated_at, u.full_name, u.email FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.school_id = $1 ORDER BY u.full_name ASC LIMIT 100 OFFSET 100")).
		WithArgs("sch1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.school_id = $1")).
		WithArgs("sch1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(250))

	_, total, err := repo.List(context.Background(), models.TeacherFilter{SchoolID: "sch1", Page: 2, PageSize: 150})
	require.NoError(t, err)
	assert.Equal(t, 250, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListSearchMatchesRegistrationCaseInsensitively(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "user_id", "registration", "expertise", "active", "created_at", "updated_at", "full_name", "email"}).
		AddRow("t1", "sch1", "u1", "REG-001", nil, true, time.Now(), time.Now(), "Ana Souza", "ana@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.id, t.school_id, t.user_id, t.registration, t.expertise, t.active, t.created_at, t.updated_at, u.full_name, u.email FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.school_id = $1 AND (LOWER(u.full_name) LIKE $2 OR LOWER(u.email) LIKE $2 OR LOWER(t.registration) LIKE $2) ORDER BY u.full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("sch1", "%reg-00%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.school_id = $1 AND (LOWER(u.full_name) LIKE $2 OR LOWER(u.email) LIKE $2 OR LOWER(t.registration) LIKE $2)")).
		WithArgs("sch1", "%reg-00%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, _, err := repo.List(context.Background(), models.TeacherFilter{SchoolID: "sch1", Search: "REG-00"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
