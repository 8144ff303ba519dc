package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/projectdesk/internal/domain"
	"github.com/vedran77/projectdesk/internal/repository"
)

var projectRowColumns = []string{"id", "name", "status", "start_date", "assignee_id", "created_at", "updated_at", "name", "email"}

func newProjectRepoWithMock(t *testing.T) (*ProjectRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProjectRepo(db), mock
}

func TestProjectRepo_List_WithAndWithoutAssignee(t *testing.T) {
	repo, mock := newProjectRepoWithMock(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p1, p2, u1 := uuid.New(), uuid.New(), uuid.New()

	rows := sqlmock.NewRows(projectRowColumns).
		AddRow(p1.String(), "Apollo", "IN_PROGRESS", start, u1.String(), start, start, "U One", "u1@x.com").
		AddRow(p2.String(), "Gemini", "PLANNED", start, nil, start, start, nil, nil)
	mock.ExpectQuery(`(?s)FROM projects p\s+LEFT JOIN users u ON u.id = p.assignee_id\s+ORDER BY`).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.ProjectInProgress, got[0].Status)
	require.NotNil(t, got[0].Assignee)
	assert.Equal(t, u1, got[0].Assignee.ID)
	assert.Equal(t, "U One", got[0].Assignee.Name)

	assert.Nil(t, got[1].Assignee)
	assert.Nil(t, got[1].AssigneeID)
}

func TestProjectRepo_GetByID_Absent(t *testing.T) {
	repo, mock := newProjectRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`WHERE p.id = \$1`).WithArgs(id).WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProjectRepo_Assign(t *testing.T) {
	projectID, userID := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		userID  *uuid.UUID
		wantArg any
		result  sql.Result
		err     error
		wantErr error
	}{
		{name: "assign", userID: &userID, wantArg: userID.String(), result: sqlmock.NewResult(0, 1)},
		{name: "unassign", userID: nil, wantArg: nil, result: sqlmock.NewResult(0, 1)},
		{name: "unknown project", userID: &userID, wantArg: userID.String(), result: sqlmock.NewResult(0, 0), wantErr: repository.ErrNotFound},
		{name: "unknown user", userID: &userID, wantArg: userID.String(), err: &pgconn.PgError{Code: "23503"}, wantErr: repository.ErrMissingReference},
		{name: "db error", userID: &userID, wantArg: userID.String(), err: errors.New("db down"), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newProjectRepoWithMock(t)

			exp := mock.ExpectExec(`UPDATE projects SET assignee_id = \$1, updated_at = \$2 WHERE id = \$3`).
				WithArgs(tt.wantArg, sqlmock.AnyArg(), projectID)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Assign(context.Background(), projectID, tt.userID)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.err != nil:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "db error")
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProjectRepo_Delete(t *testing.T) {
	repo, mock := newProjectRepoWithMock(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM projects WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(`DELETE FROM projects WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), repository.ErrNotFound)
}
