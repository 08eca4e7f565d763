package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/walletrecon/internal/domain"
)

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	pool Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// List retrieves users with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	query := `
		SELECT id, email, created_at
		FROM users
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var (
			user  domain.User
			email pgtype.Text
		)
		if err := rows.Scan(&user.ID, &email, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.Email = textOrEmpty(email)
		users = append(users, &user)
	}

	return users, rows.Err()
}
