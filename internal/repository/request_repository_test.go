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

func TestRequestRepositoryListPurchaseRequestsByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "requester_id", "description", "quantity", "unit_price_cents", "status", "created_at", "updated_at"}).
		AddRow("pr1", "sch1", "u1", "Papel A4", 10, int64(2500), "REQUESTED", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM purchase_requests WHERE school_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("sch1", models.RequestStatusRequested).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM purchase_requests WHERE school_id = $1 AND status = $2")).
		WithArgs("sch1", models.RequestStatusRequested).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.ListPurchaseRequests(context.Background(), models.RequestFilter{SchoolID: "sch1", Status: models.RequestStatusRequested})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdatePurchaseRequestStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE purchase_requests SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4")).
		WithArgs(models.RequestStatusApproved, sqlmock.AnyArg(), "pr1", "sch1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePurchaseRequestStatus(context.Background(), "sch1", "pr1", models.RequestStatusApproved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCreatePrintRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectExec("INSERT INTO print_requests").
		WithArgs(sqlmock.AnyArg(), "sch1", "u1", "Prova bimestral", 30, sqlmock.AnyArg(), models.RequestStatusRequested, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.PrintRequest{
		SchoolID:     "sch1",
		RequesterID:  "u1",
		DocumentName: "Prova bimestral",
		Copies:       30,
		Status:       models.RequestStatusRequested,
	}
	require.NoError(t, repo.CreatePrintRequest(context.Background(), request))
	assert.NotEmpty(t, request.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
