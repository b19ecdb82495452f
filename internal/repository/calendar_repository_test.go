package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolaware/escola-api/internal/models"
)

func TestCalendarRepositoryCreateVersionedIncrementsVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM school_calendars WHERE school_id = $1 AND class_id = $2 AND academic_period_id = $3")).
		WithArgs("sch1", "c1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))
	mock.ExpectExec("INSERT INTO school_calendars").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO calendar_slots").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	calendar := &models.SchoolCalendar{
		SchoolID:         "sch1",
		ClassID:          "c1",
		AcademicPeriodID: "p1",
		Status:           models.CalendarStatusDraft,
		Meta:             []byte(`{}`),
	}
	slots := []models.CalendarSlot{
		{Weekday: 1, Position: 1, StartsAt: "07:30", DurationMin: 50, SubjectID: "sub1", TeacherID: "t1"},
	}

	require.NoError(t, repo.CreateVersioned(context.Background(), calendar, slots))
	assert.Equal(t, 3, calendar.Version)
	assert.Equal(t, calendar.ID, slots[0].CalendarID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryFindTeacherConflicts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("sch1", "p1", "c1", models.CalendarStatusPublished, "t1", 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("sch1", "p1", "c1", models.CalendarStatusPublished, "t2", 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	slots := []models.CalendarSlot{
		{Weekday: 1, Position: 1, SubjectID: "sub1", TeacherID: "t1"},
		{Weekday: 1, Position: 2, SubjectID: "sub2", TeacherID: "t2"},
	}

	conflicts, err := repo.FindTeacherConflicts(context.Background(), "sch1", "p1", "c1", slots)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "teacher", conflicts[0].Dimension)
	assert.Equal(t, "t1", conflicts[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
