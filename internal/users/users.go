package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrNoFields   = errors.New("no fields to update")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct {
	DB         *pgxpool.Pool
	BcryptCost int
}

func (r *Repo) cost() int {
	if r.BcryptCost > 0 {
		return r.BcryptCost
	}
	return bcrypt.DefaultCost
}

// Create hashes the password and inserts a regular user.
func (r *Repo) Create(ctx context.Context, username, email, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost())
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var id int64
	err = r.DB.QueryRow(ctx, `
		INSERT INTO users (username, email, password, role)
		VALUES ($1, $2, $3, 'user')
		RETURNING user_id`, username, email, string(hash)).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// Authenticate checks email + password and returns the user on success.
func (r *Repo) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT user_id, username, email, password, role, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.UserID, &u.Username, &u.Email, &u.Password, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	return r.scanUsers(r.DB.Query(ctx, `
		SELECT user_id, username, email, '', role, created_at
		FROM users
		ORDER BY user_id DESC`))
}

// Search matches username or email, case-insensitively.
func (r *Repo) Search(ctx context.Context, query string) ([]User, error) {
	pattern := "%" + query + "%"
	return r.scanUsers(r.DB.Query(ctx, `
		SELECT user_id, username, email, '', role, created_at
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1
		ORDER BY user_id DESC`, pattern))
}

func (r *Repo) scanUsers(rows pgx.Rows, err error) ([]User, error) {
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.Username, &u.Email, &u.Password, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update changes only the provided (non-empty) fields.
func (r *Repo) Update(ctx context.Context, userID int64, username, email, role string) error {
	set := ""
	args := []any{}
	add := func(col, val string) {
		if val == "" {
			return
		}
		if set != "" {
			set += ", "
		}
		args = append(args, val)
		set += fmt.Sprintf("%s = $%d", col, len(args))
	}
	add("username", username)
	add("email", email)
	add("role", role)
	if set == "" {
		return ErrNoFields
	}
	args = append(args, userID)

	ct, err := r.DB.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE user_id = $%d`, set, len(args)), args...)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) UpdatePassword(ctx context.Context, userID int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), r.cost())
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE users SET password = $1 WHERE user_id = $2`, string(hash), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
