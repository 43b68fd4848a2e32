package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() accountdomain.Repository {
	return &repo{}
}

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *accountdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*accountdomain.User, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindByUsername(ctx context.Context, db *gorm.DB, username string) (*accountdomain.User, error) {
	return r.findOne(ctx, db, `username = ?`, username)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*accountdomain.User, error) {
	var user accountdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE `+where,
		arg,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]accountdomain.User, error) {
	var users []accountdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT ` + userColumns + ` FROM users ORDER BY username ASC`,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, user *accountdomain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET username = ?, email = ?, role = ?, updated_at = ? WHERE id = ?`,
		user.Username,
		user.Email,
		user.Role,
		user.UpdatedAt,
		user.ID,
	).Error
}

// Delete removes the user with its sessions and room assignment.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var deleted bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_sessions WHERE user_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM user_details WHERE user_id = ?`, id).Error; err != nil {
			return err
		}
		res := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *repo) CountByRole(ctx context.Context, db *gorm.DB, role accountdomain.Role) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM users WHERE role = ?`, role).Scan(&count).Error
	return count, err
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, session *accountdomain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_sessions (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
	).Error
}

func (r *repo) FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*accountdomain.Session, error) {
	var session accountdomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		 FROM user_sessions WHERE token_hash = ?`,
		tokenHash,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) RevokeSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		at,
		id,
	).Error
}
