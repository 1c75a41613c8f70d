package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// FollowerRepository reads the social graph used by the following scope.
type FollowerRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFollowerRepository constructs the repository.
func NewFollowerRepository(db *sqlx.DB, timeout time.Duration) *FollowerRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FollowerRepository{db: db, timeout: timeout}
}

// ListFollowingIDs returns the ids of everyone the given user follows.
func (r *FollowerRepository) ListFollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	const query = `SELECT following_id FROM followers WHERE follower_id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, followerID); err != nil {
		return nil, fmt.Errorf("list following ids: %w", err)
	}
	return ids, nil
}
