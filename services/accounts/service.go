package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"cinetrack/models"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service manages accounts and their credentials. Emails are normalized
// before every lookup or write, so "A@x.com " and "a@x.com" are the same
// account.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a new password-based account. A normalized-email
// collision fails with ErrEmailTaken; the database unique constraint is
// the arbiter, so two concurrent signups cannot both win.
func (s *Service) Signup(ctx context.Context, email, password string) (models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return models.User{}, ErrEmailRequired
	}
	if password == "" {
		return models.User{}, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash) VALUES (?, ?)", email, string(hash))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.getByID(ctx, id)
}

// Authenticate checks a password login. Unknown emails and wrong passwords
// return the same ErrInvalidCredentials so callers cannot probe for
// registered addresses.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := s.getByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if user.PasswordHash == "" {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GoogleLogin finds or creates the account for a verified Google identity.
// A fresh email creates a password-less account; an existing account that
// has no Google link yet gets the subject id attached.
func (s *Service) GoogleLogin(ctx context.Context, email, googleID string) (models.User, error) {
	email = NormalizeEmail(email)
	googleID = strings.TrimSpace(googleID)
	if email == "" {
		return models.User{}, ErrEmailRequired
	}
	if googleID == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := s.getByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO users (email, google_id) VALUES (?, ?)", email, googleID)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
				// Lost a race with a concurrent signup for the same email;
				// retry as a lookup.
				return s.GoogleLogin(ctx, email, googleID)
			}
			return models.User{}, fmt.Errorf("create google user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return models.User{}, fmt.Errorf("user id: %w", err)
		}
		return s.getByID(ctx, id)
	}
	if err != nil {
		return models.User{}, err
	}

	if user.GoogleID == "" {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE users SET google_id = ? WHERE id = ?", googleID, user.ID); err != nil {
			return models.User{}, fmt.Errorf("link google account: %w", err)
		}
		user.GoogleID = googleID
	}
	return user, nil
}

func (s *Service) getByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, google_id, created_at FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (s *Service) getByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, google_id, created_at FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}
