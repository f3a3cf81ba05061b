package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/reportdesk/incident_reporting_system/internal/service"
)

// Код ошибки PostgreSQL для нарушения уникального ограничения
const uniqueViolationCode = "23505"

type AdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) service.AdminRepository {
	return &AdminRepository{
		db: db,
	}
}

// Create создает новую учетную запись администратора.
// Дубликат имени пользователя возвращает ErrDuplicateUsername без побочных эффектов.
func (r *AdminRepository) Create(ctx context.Context, account *models.AdminAccount) error {
	query := `
		INSERT INTO admin_accounts (username, password_hash)
		VALUES ($1, $2) RETURNING id, created_at, is_active;
	`
	err := r.db.QueryRow(ctx, query,
		account.Username,
		account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt, &account.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return service.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	return nil
}

// GetByID возвращает учетную запись администратора по идентификатору
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*models.AdminAccount, error) {
	account := &models.AdminAccount{}
	query := `
		SELECT id, username, password_hash, created_at, is_active
		FROM admin_accounts
		WHERE id = $1;
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin account by id: %w", err)
	}
	return account, nil
}

// GetByUsername возвращает учетную запись администратора по имени пользователя.
// Имена чувствительны к регистру: сравнение выполняется как есть.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	account := &models.AdminAccount{}
	query := `
		SELECT id, username, password_hash, created_at, is_active
		FROM admin_accounts
		WHERE username = $1;
	`
	err := r.db.QueryRow(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin account by username: %w", err)
	}
	return account, nil
}

// List возвращает все учетные записи администраторов
func (r *AdminRepository) List(ctx context.Context) ([]*models.AdminAccount, error) {
	query := `
		SELECT id, username, password_hash, created_at, is_active
		FROM admin_accounts
		ORDER BY created_at ASC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.AdminAccount, 0)
	for rows.Next() {
		account := &models.AdminAccount{}
		err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.PasswordHash,
			&account.CreatedAt,
			&account.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin account row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return accounts, nil
}

// SetActive устанавливает флаг активности.
// Повторная установка того же значения - no-op успех (идемпотентность).
func (r *AdminRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `
		UPDATE admin_accounts SET is_active = $2
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set admin account active flag: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// UpdatePasswordHash заменяет хеш пароля учетной записи
func (r *AdminRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	query := `
		UPDATE admin_accounts SET password_hash = $2
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update admin account password: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// Delete физически удаляет учетную запись администратора
func (r *AdminRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM admin_accounts
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin account: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}
