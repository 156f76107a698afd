package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stars-api/internal/models"
)

// CredentialRepository manages login credentials for students and admins.
type CredentialRepository struct {
	db *sqlx.DB
}

// NewCredentialRepository constructs a CredentialRepository.
func NewCredentialRepository(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindByUsername fetches an active credential for one username and role.
// Returns nil without error when no match exists.
func (r *CredentialRepository) FindByUsername(ctx context.Context, username string, role models.UserRole) (*models.Credential, error) {
	const query = `SELECT id, username, password_hash, role, matric_no, active, created_at, updated_at
        FROM credentials WHERE username = $1 AND role = $2 AND active = true`
	var cred models.Credential
	if err := r.db.GetContext(ctx, &cred, query, username, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &cred, nil
}

// Insert creates a credential row.
func (r *CredentialRepository) Insert(ctx context.Context, cred *models.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	const query = `INSERT INTO credentials (id, username, password_hash, role, matric_no, active, created_at, updated_at)
        VALUES (:id, :username, :password_hash, :role, :matric_no, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cred); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored hash for one credential.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE credentials SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
