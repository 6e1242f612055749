package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/itchan-dev/userhub/internal/domain"
	internal_errors "github.com/itchan-dev/userhub/internal/errors"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// The partial unique index users_email_live_idx only covers rows with
// is_deleted = false, so a reclaimed email never trips it.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const userColumns = "id, name, email, password_hash, status, last_login, (created_at at time zone 'utc'), is_deleted"

func scanUser(row *sql.Row) (domain.User, error) {
	var user domain.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.Id, &user.Name, &user.Email, &user.PasswordHash, &user.Status, &lastLogin, &user.CreatedAt, &user.IsDeleted)
	if err != nil {
		return domain.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		user.LastLogin = &t
	}
	return user, nil
}

// =========================================================================
// Public methods (satisfy the service.UserStorage interface)
// =========================================================================

// SaveUser inserts a fresh account row. A unique violation on the live-email
// index surfaces as a Conflict error, not a crash.
func (s *Storage) SaveUser(user domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveUser(tx, &user)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "Email already exists", StatusCode: http.StatusBadRequest}
		}
		return domain.User{}, err
	}
	return user, nil
}

// ReactivateUser overwrites a soft-deleted row in place so the email is
// reclaimed without inserting a second row.
func (s *Storage) ReactivateUser(user domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.reactivateUser(tx, &user)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "Email already exists", StatusCode: http.StatusBadRequest}
		}
		return domain.User{}, err
	}
	return user, nil
}

// User fetches a live (non-deleted) account by email.
func (s *Storage) User(email domain.Email) (domain.User, error) {
	return s.user(s.db, email)
}

// DeletedUser fetches a soft-deleted account by email, used by the
// registration reclaim path.
func (s *Storage) DeletedUser(email domain.Email) (domain.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = $1 AND is_deleted", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to query deleted user: %w", err)
	}
	return user, nil
}

// UserById fetches a live account by id. The account-status middleware calls
// this on every roster mutation to re-check the actor against fresh state.
func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = $1 AND NOT is_deleted", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to query user by id: %w", err)
	}
	return user, nil
}

// UpdateLastLogin stamps a successful login.
func (s *Storage) UpdateLastLogin(id domain.UserId, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE users SET last_login = $1 WHERE id = $2 AND NOT is_deleted", at, id)
		if err != nil {
			return fmt.Errorf("failed to update last login: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for last login update: %w", err)
		}
		if rowsAffected == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return nil
	})
}

// ActiveUsers returns all live accounts ordered by recency of login, with
// never-logged-in accounts last.
func (s *Storage) ActiveUsers() ([]domain.User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users WHERE NOT is_deleted ORDER BY last_login DESC NULLS LAST, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		var lastLogin sql.NullTime
		if err := rows.Scan(&user.Id, &user.Name, &user.Email, &user.PasswordHash, &user.Status, &lastLogin, &user.CreatedAt, &user.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		if lastLogin.Valid {
			t := lastLogin.Time.UTC()
			user.LastLogin = &t
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// UpdateStatus sets the status for every live account in ids as one unit.
// Unmatched or deleted ids are silently skipped; returns the affected count.
func (s *Storage) UpdateStatus(ids []domain.UserId, status domain.UserStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE users SET status = $1 WHERE id = ANY($2) AND NOT is_deleted", status, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to update user status: %w", err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for status update: %w", err)
		}
		return nil
	})
	return affected, err
}

// SoftDeleteUsers marks every live account in ids as deleted. Rows are kept
// so their emails can be reclaimed by a later registration.
func (s *Storage) SoftDeleteUsers(ids []domain.UserId) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE users SET is_deleted = TRUE WHERE id = ANY($1) AND NOT is_deleted", pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to soft delete users: %w", err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for soft delete: %w", err)
		}
		return nil
	})
	return affected, err
}

// =========================================================================
// Internal methods (core database logic, transaction-agnostic)
// =========================================================================

func (s *Storage) saveUser(q Querier, user *domain.User) error {
	err := q.QueryRow(`
        INSERT INTO users(name, email, password_hash, status, last_login, created_at, is_deleted)
        VALUES($1, $2, $3, $4, $5, $6, FALSE) RETURNING id`,
		user.Name, user.Email, user.PasswordHash, user.Status, user.LastLogin, user.CreatedAt,
	).Scan(&user.Id)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Storage) reactivateUser(q Querier, user *domain.User) error {
	result, err := q.Exec(`
        UPDATE users
        SET name = $1, password_hash = $2, status = $3, last_login = $4, created_at = $5, is_deleted = FALSE
        WHERE id = $6 AND is_deleted`,
		user.Name, user.PasswordHash, user.Status, user.LastLogin, user.CreatedAt, user.Id,
	)
	if err != nil {
		return fmt.Errorf("failed to reactivate user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for reactivation: %w", err)
	}
	if rowsAffected == 0 {
		// The row was reclaimed concurrently; treat it the same as a fresh
		// registration racing the unique index.
		return &internal_errors.ErrorWithStatusCode{Message: "Email already exists", StatusCode: http.StatusBadRequest}
	}
	return nil
}

func (s *Storage) user(q Querier, email domain.Email) (domain.User, error) {
	row := q.QueryRow("SELECT "+userColumns+" FROM users WHERE email = $1 AND NOT is_deleted", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}
