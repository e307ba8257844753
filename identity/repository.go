package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("identity: user not found")
	// ErrDuplicateUsername signals that the username is already taken.
	ErrDuplicateUsername = errors.New("identity: username already exists")
)

// Repository handles data access for user accounts.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	ListAll(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// CreateParams contains write parameters for creating a user.
type CreateParams struct {
	Username     string
	PasswordHash string
	Role         Role
	DisplayName  string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed identity repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = "id, username, password_hash, role, display_name, created_at"

// Create inserts a new user with a pre-hashed password.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (User, error) {
	insertSQL := fmt.Sprintf(`
		INSERT INTO users (username, password_hash, role, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, insertSQL, params.Username, params.PasswordHash, params.Role, params.DisplayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateUsername
		}
		return User{}, fmt.Errorf("identity: create user: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by login name.
func (r *PGRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("identity: get user by username: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (User, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("identity: get user by id: %w", err)
	}

	return user, nil
}

// ListByRole returns all users holding the given role, oldest first.
func (r *PGRepository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 ORDER BY id`, userColumns)

	rows, err := r.pool.Query(ctx, selectSQL, role)
	if err != nil {
		return nil, fmt.Errorf("identity: list by role: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListAll returns every user ordered by role then id, matching the
// account-management listing.
func (r *PGRepository) ListAll(ctx context.Context) ([]User, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM users ORDER BY role, id`, userColumns)

	rows, err := r.pool.Query(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("identity: list all: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// Delete removes a user row. Requests referencing the user are left in
// place; dangling assignee references are an accepted gap of the schema.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("identity: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("identity: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.DisplayName,
		&user.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("identity: scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("identity: iterate users: %w", err)
	}
	return users, nil
}
