package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolaware/escola-api/internal/models"
)

func TestCanteenRepositoryListItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCanteenRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "name", "price_cents", "active", "created_at", "updated_at"}).
		AddRow("i1", "sch1", "Suco de laranja", int64(450), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM canteen_items WHERE school_id = $1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("sch1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM canteen_items WHERE school_id = $1")).
		WithArgs("sch1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.ListItems(context.Background(), models.CanteenItemFilter{SchoolID: "sch1"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(450), items[0].PriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanteenRepositoryMonthTotalForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCanteenRepository(db)

	ref := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity * unit_price_cents), 0) FROM canteen_purchases WHERE school_id = $1 AND student_id = $2 AND purchased_at >= $3 AND purchased_at < $4")).
		WithArgs("sch1", "stu1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(1250)))

	total, err := repo.MonthTotalForStudent(context.Background(), "sch1", "stu1", ref)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanteenRepositoryCreatePurchaseSnapshotsPrice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCanteenRepository(db)

	mock.ExpectExec("INSERT INTO canteen_purchases").
		WithArgs(sqlmock.AnyArg(), "sch1", "stu1", "i1", 2, int64(450), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	purchase := &models.CanteenPurchase{
		SchoolID:       "sch1",
		StudentID:      "stu1",
		ItemID:         "i1",
		Quantity:       2,
		UnitPriceCents: 450,
	}
	require.NoError(t, repo.CreatePurchase(context.Background(), purchase))
	assert.NotEmpty(t, purchase.ID)
	assert.False(t, purchase.PurchasedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanteenRepositoryStandingBySchool(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCanteenRepository(db)

	limit := int64(5000)
	rows := sqlmock.NewRows([]string{"student_id", "full_name", "canteen_limit", "month_total_cents"}).
		AddRow("stu1", "Bruno Lima", limit, int64(1250)).
		AddRow("stu2", "Clara Dias", nil, int64(0))
	mock.ExpectQuery("SELECT s.id AS student_id, u.full_name, s.canteen_limit").
		WithArgs("sch1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	standings, err := repo.StandingBySchool(context.Background(), "sch1", time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, int64(5000), *standings[0].CanteenLimit)
	assert.Nil(t, standings[1].CanteenLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}
