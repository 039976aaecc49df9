package users

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-iam/atlas-iam/internal/platform/db"
)

// RoleStore implements rbac.RoleStore on the user_roles join table.
// Attach uses ON CONFLICT DO NOTHING and Detach plain DELETE, so both are
// idempotent at the store.
type RoleStore struct {
	pool *pgxpool.Pool
}

// NewRoleStore constructs a RoleStore.
func NewRoleStore(pool *pgxpool.Pool) *RoleStore {
	return &RoleStore{pool: pool}
}

// ResolveRoles returns the names of live roles assigned to the subject.
// Assignments pointing at soft-deleted roles do not resolve.
func (s *RoleStore) ResolveRoles(ctx context.Context, subjectID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.name
		   FROM user_roles ur
		   JOIN roles r ON r.id = ur.role_id AND r.deleted_at IS NULL
		  WHERE ur.user_id = $1
		  ORDER BY r.name`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// Attach assigns roles to the subject. A multi-role attach is all or
// nothing.
func (s *RoleStore) Attach(ctx context.Context, subjectID int64, roleIDs []int64) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role_id, created_at) VALUES ($1, $2, now())
				 ON CONFLICT (user_id, role_id) DO NOTHING`, subjectID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Detach removes roles from the subject.
func (s *RoleStore) Detach(ctx context.Context, subjectID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = ANY($2)`, subjectID, roleIDs)
	return err
}
