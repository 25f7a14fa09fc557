package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Role constants for user privilege levels.
const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is a recognised privilege level.
func ValidRole(role string) bool {
	switch role {
	case RolePlayer, RoleAdmin:
		return true
	}
	return false
}

var (
	// ErrInvalidRole is returned when an unrecognised role string is supplied.
	ErrInvalidRole = errors.New("invalid role")
	// ErrUserNotFound is returned when a user lookup yields no results.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when an email already belongs to another user.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a login identity. PlayerID is nil until the user creates a player.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	PlayerID     *int64    `json:"playerId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository provides user persistence operations.
type UserRepository struct {
	db   *pgxpool.Pool
	cost int
}

// NewUserRepository creates a UserRepository backed by the given pool that
// hashes passwords with the given bcrypt cost.
//
// Precondition: db must be a valid, open connection pool.
func NewUserRepository(db *pgxpool.Pool, bcryptCost int) *UserRepository {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserRepository{db: db, cost: bcryptCost}
}

const userColumns = `id, email, password_hash, role, player_id, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.PlayerID, &u.CreatedAt)
	return u, err
}

// NormalizeEmail lower-cases and trims an email address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user with a bcrypt-hashed password.
//
// Precondition: email must be non-empty; password must be non-empty.
// Postcondition: Returns the created User with ID and CreatedAt set,
// or ErrEmailTaken if the email is registered.
func (r *UserRepository) Create(ctx context.Context, email, password string) (User, error) {
	hash, err := HashPassword(password, r.cost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING `+userColumns,
		NormalizeEmail(email), hash,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// Authenticate verifies credentials and returns the matching user.
//
// Postcondition: Returns the User if credentials are valid,
// ErrUserNotFound if the email is unknown, or ErrInvalidCredentials if the password is wrong.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !CheckPassword(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
//
// Postcondition: Returns the User or ErrUserNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		NormalizeEmail(email),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
//
// Postcondition: Returns the User or ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// List returns every user ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateEmail changes the email of the given user.
//
// Postcondition: Returns nil, ErrEmailTaken if another user holds the email,
// or ErrUserNotFound.
func (r *UserRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET email = $2 WHERE id = $1`,
		id, NormalizeEmail(email),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("updating email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ChangePassword replaces the password after verifying the current one.
//
// Postcondition: Returns nil, ErrUserNotFound, or ErrInvalidCredentials.
func (r *UserRepository) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPassword(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next, r.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// SetRole updates the role for the given user.
//
// Precondition: role must be a valid role string (use ValidRole to check).
// Postcondition: The user's role is updated, or ErrInvalidRole / ErrUserNotFound is returned.
func (r *UserRepository) SetRole(ctx context.Context, id int64, role string) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE users SET role = $1 WHERE id = $2`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// HashPassword creates a bcrypt hash of the given password at the given cost.
//
// Precondition: password must be non-empty and at most 72 bytes.
// Postcondition: Returns a bcrypt hash string.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
//
// Postcondition: Returns true if password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
