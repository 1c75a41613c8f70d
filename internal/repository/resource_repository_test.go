package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/studyhive/resource-api/internal/models"
)

func newResourceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func resourceRowColumns() []string {
	return []string{
		"id", "owner_id", "title", "description", "course_code", "resource_type",
		"media", "hashtags", "upvote_count", "created_at", "owner_student_code", "owner_email",
	}
}

func TestResourceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db, time.Second)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resources")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	res := &models.Resource{
		OwnerID:      "owner-1",
		Title:        "Calculus notes",
		ResourceType: models.ResourceTypeDocument,
		Media: models.MediaAggregate{
			Files: []models.MediaEntry{{ID: 1, URL: "https://cdn/a.pdf"}},
		},
	}
	require.NoError(t, repo.Create(context.Background(), res))
	require.NotEmpty(t, res.ID)
	require.False(t, res.CreatedAt.IsZero())
	require.NotNil(t, res.Hashtags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db, time.Second)
	email := "owner@example.com"
	rows := sqlmock.NewRows(resourceRowColumns()).
		AddRow("res-1", "owner-1", "Calculus notes", nil, "MATH101", "DOCUMENT",
			[]byte(`{"files":[{"id":1,"url":"https://cdn/a.pdf","caption":null}]}`),
			"{math,calculus}", 3, time.Now(), "S-001", email)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id, r.owner_id")).
		WithArgs("res-1").
		WillReturnRows(rows)

	res, err := repo.GetByID(context.Background(), "res-1")
	require.NoError(t, err)
	require.Equal(t, "res-1", res.ID)
	require.Len(t, res.Media.Files, 1)
	require.Equal(t, []string{"math", "calculus"}, []string(res.Hashtags))
	require.NotNil(t, res.Owner)
	require.Equal(t, "owner-1", res.Owner.ID)
	require.Equal(t, email, *res.Owner.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryGetOwnerID(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db, time.Second)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM resources")).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("owner-1"))

	ownerID, err := repo.GetOwnerID(context.Background(), "res-1")
	require.NoError(t, err)
	require.Equal(t, "owner-1", ownerID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM resources")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetOwnerID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db, time.Second)
	rows := sqlmock.NewRows(resourceRowColumns()).
		AddRow("res-1", "owner-2", "SQL basics", nil, "CS305", "URL",
			[]byte(`{"urls":[{"id":1,"url":"https://example.com"}]}`),
			"{sql}", 0, time.Now(), nil, nil)
	mock.ExpectQuery(`(?s)SELECT r\.id, r\.owner_id.+WHERE r\.owner_id = ANY\(\$1\) AND r\.course_code = \$2 AND \$3 = ANY\(r\.hashtags\) AND \(r\.title ILIKE \$4 OR r\.description ILIKE \$4\) ORDER BY r\.created_at DESC`).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ResourceFilter{
		OwnerIDs:   []string{"owner-2"},
		CourseCode: "CS305",
		Hashtag:    "sql",
		Search:     "basics",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "res-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db, time.Second)
	mock.ExpectQuery(`(?s)SELECT r\.id, r\.owner_id.+FROM resources r LEFT JOIN students s.+ORDER BY r\.created_at DESC`).
		WillReturnRows(sqlmock.NewRows(resourceRowColumns()))

	list, err := repo.List(context.Background(), models.ResourceFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
	require.NotNil(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db, time.Second)
	res := &models.Resource{ID: "res-1", Title: "Updated", ResourceType: models.ResourceTypeURL}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), res))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Update(context.Background(), res), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db, time.Second)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources")).
		WithArgs("res-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "res-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
