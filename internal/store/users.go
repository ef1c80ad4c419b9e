package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const userColumns = `id, name, email, phone, user_type, gender, date_of_birth, avatar_url,
	is_active, last_login, created_at, updated_at`

// InsertUser inserts a new user row.
// Duplicate email or phone fails with a UNIQUE *ConstraintError.
func (t *Tx) InsertUser(ctx context.Context, u model.User) error {
	_, err := t.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.Name, u.Email, u.Phone, string(u.UserType), string(u.Gender),
		u.DateOfBirth, u.AvatarURL, u.IsActive, nullTime(u.LastLogin), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser reads a user by id.
func (t *Tx) GetUser(ctx context.Context, id string) (model.User, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// FindUserByEmail reads a user by normalized email.
func (t *Tx) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// UserExists reports whether a user row with id exists.
func (t *Tx) UserExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return n > 0, nil
}

// UpdateUser writes every mutable column of u.
// Email and phone are identity columns and are not updated here.
func (t *Tx) UpdateUser(ctx context.Context, u model.User) error {
	err := t.execOne(ctx, `
		UPDATE users
		SET name = ?, user_type = ?, avatar_url = ?, is_active = ?, last_login = ?, updated_at = ?
		WHERE id = ?
	`, u.Name, string(u.UserType), u.AvatarURL, u.IsActive, nullTime(u.LastLogin), u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser hard-deletes a user. Foreign keys cascade to every owned row.
func (t *Tx) DeleteUser(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func scanUser(row scanner) (model.User, error) {
	var (
		u         model.User
		userType  string
		gender    string
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &userType, &gender, &u.DateOfBirth, &u.AvatarURL,
		&u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err := scanOne(err, "user"); err != nil {
		return model.User{}, err
	}
	u.UserType = model.UserType(userType)
	u.Gender = model.Gender(gender)
	u.LastLogin = timePtr(lastLogin)
	return u, nil
}
