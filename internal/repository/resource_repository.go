package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/studyhive/resource-api/internal/models"
)

const resourceColumns = `r.id, r.owner_id, r.title, r.description, r.course_code, r.resource_type,
       r.media, r.hashtags, r.upvote_count, r.created_at,
       s.student_code AS owner_student_code, s.email AS owner_email`

const resourceFrom = ` FROM resources r LEFT JOIN students s ON s.id = r.owner_id`

type resourceRow struct {
	models.Resource
	OwnerStudentCode *string `db:"owner_student_code"`
	OwnerEmail       *string `db:"owner_email"`
}

func (row *resourceRow) toModel() *models.Resource {
	res := row.Resource
	res.Owner = &models.Owner{
		ID:          res.OwnerID,
		StudentCode: row.OwnerStudentCode,
		Email:       row.OwnerEmail,
	}
	return &res
}

// ResourceRepository handles resource persistence.
type ResourceRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewResourceRepository constructs the repository. Timeout bounds every query.
func NewResourceRepository(db *sqlx.DB, timeout time.Duration) *ResourceRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ResourceRepository{db: db, timeout: timeout}
}

func (r *ResourceRepository) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create stores a new resource row, assigning id and creation time.
func (r *ResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	if res.Hashtags == nil {
		res.Hashtags = pq.StringArray{}
	}
	const query = `INSERT INTO resources
	(id, owner_id, title, description, course_code, resource_type, media, hashtags, upvote_count, created_at)
	VALUES (:id, :owner_id, :title, :description, :course_code, :resource_type, :media, :hashtags, :upvote_count, :created_at)`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()
	if _, err := r.db.NamedExecContext(ctx, query, res); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// GetByID retrieves one resource with its owner joined on.
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + resourceFrom + ` WHERE r.id = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()
	var row resourceRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetOwnerID fetches just the owner column, used for ownership checks before
// any mutation touches the row.
func (r *ResourceRepository) GetOwnerID(ctx context.Context, id string) (string, error) {
	const query = `SELECT owner_id FROM resources WHERE id = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()
	var ownerID string
	if err := r.db.GetContext(ctx, &ownerID, query, id); err != nil {
		return "", err
	}
	return ownerID, nil
}

// List returns resources matching the filter, newest first.
func (r *ResourceRepository) List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + resourceColumns + resourceFrom)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)

	if len(filter.OwnerIDs) > 0 {
		args = append(args, pq.Array(filter.OwnerIDs))
		conditions = append(conditions, fmt.Sprintf("r.owner_id = ANY($%d)", len(args)))
	}
	if filter.CourseCode != "" {
		args = append(args, filter.CourseCode)
		conditions = append(conditions, fmt.Sprintf("r.course_code = $%d", len(args)))
	}
	if filter.Hashtag != "" {
		args = append(args, filter.Hashtag)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(r.hashtags)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(r.title ILIKE $%d OR r.description ILIKE $%d)", len(args), len(args)))
	}

	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY r.created_at DESC")

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()
	var rows []resourceRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	resources := make([]models.Resource, 0, len(rows))
	for i := range rows {
		resources = append(resources, *rows[i].toModel())
	}
	return resources, nil
}

// Update persists the mutable columns of an existing row.
func (r *ResourceRepository) Update(ctx context.Context, res *models.Resource) error {
	const query = `UPDATE resources
	SET title = :title, description = :description, course_code = :course_code,
	    resource_type = :resource_type, media = :media, hashtags = :hashtags
	WHERE id = :id`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()
	result, err := r.db.NamedExecContext(ctx, query, res)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resource update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a row permanently. Remote binaries referenced by the media
// aggregate are left untouched.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resources WHERE id = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resource delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
