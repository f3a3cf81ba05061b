package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/reportdesk/incident_reporting_system/internal/security"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidCredentials - единый отказ аутентификации: неверный пароль,
	// неизвестное имя и деактивированная учетная запись неразличимы для вызывающего
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken возвращается при попытке создать дубликат имени пользователя
	ErrUsernameTaken = errors.New("username already exists")

	// ErrSelfAction возвращается при попытке удалить или деактивировать собственную учетную запись
	ErrSelfAction = errors.New("cannot perform this action on your own account")

	// ErrAccountNotFound возвращается, когда учетная запись не существует
	ErrAccountNotFound = errors.New("admin account not found")
)

// dummyPasswordHash - корректно закодированный хеш нулевых байт.
// Проверка против него на ветке неизвестного имени выравнивает
// время ответа с веткой неверного пароля.
const dummyPasswordHash = "AAAAAAAAAAAAAAAAAAAAAA==:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

// AdminRepository определяет контракт для работы с бд учетных записей администраторов
type AdminRepository interface {
	Create(ctx context.Context, account *models.AdminAccount) error
	GetByID(ctx context.Context, id int64) (*models.AdminAccount, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	List(ctx context.Context) ([]*models.AdminAccount, error)
	SetActive(ctx context.Context, id int64, active bool) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// SessionStore определяет контракт серверного хранилища сессий
type SessionStore interface {
	Create(ctx context.Context, adminID int64) (string, error)
	Get(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
	DeleteAllForAdmin(ctx context.Context, adminID int64) error
}

// AdminService определяет контракт для аутентификации и управления учетными записями
type AdminService interface {
	Login(ctx context.Context, username, password string) (*models.AdminAccount, error)
	GetAccount(ctx context.Context, id int64) (*models.AdminAccount, error)
	ListAccounts(ctx context.Context) ([]*models.AdminAccount, error)
	CreateAccount(ctx context.Context, username, password string) (*models.AdminAccount, error)
	SetAccountActive(ctx context.Context, actorID, id int64, active bool) error
	ResetPassword(ctx context.Context, id int64, newPassword string) error
	DeleteAccount(ctx context.Context, actorID, id int64) error
	EnsureDefaultAdmin(ctx context.Context, username, password string) error
}

type adminService struct {
	repo     AdminRepository
	sessions SessionStore
	logger   *logrus.Logger
}

func NewAdminService(repo AdminRepository, sessions SessionStore, logger *logrus.Logger) AdminService {
	return &adminService{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
	}
}

// Login проверяет учетные данные.
// Успех только для существующей активной учетной записи с совпадающим хешем,
// все режимы отказа возвращают ErrInvalidCredentials.
func (s *adminService) Login(ctx context.Context, username, password string) (*models.AdminAccount, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "admin",
		"method":   "Login",
		"username": username,
	})

	account, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_, _ = security.VerifyPassword(password, dummyPasswordHash)
			log.Warn("Failed login attempt: unknown username")
			return nil, ErrInvalidCredentials
		}
		log.WithError(err).Error("Failed to look up admin account")
		return nil, fmt.Errorf("service: could not authenticate: %w", err)
	}

	if !account.IsActive {
		log.Warn("Failed login attempt: account is deactivated")
		return nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		log.WithError(err).Error("Failed to verify password hash")
		return nil, fmt.Errorf("service: could not authenticate: %w", err)
	}
	if !ok {
		log.Warn("Failed login attempt: wrong password")
		return nil, ErrInvalidCredentials
	}

	log.Info("Admin login successful")
	return account, nil
}

// GetAccount возвращает учетную запись по идентификатору
func (s *adminService) GetAccount(ctx context.Context, id int64) (*models.AdminAccount, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("service: could not get admin account: %w", err)
	}
	return account, nil
}

// ListAccounts возвращает все учетные записи администраторов
func (s *adminService) ListAccounts(ctx context.Context) ([]*models.AdminAccount, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "admin",
		"method":  "ListAccounts",
	})

	accounts, err := s.repo.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list admin accounts")
		return nil, fmt.Errorf("service: could not list admin accounts: %w", err)
	}
	return accounts, nil
}

// CreateAccount создает учетную запись администратора.
// Хранится только argon2id-хеш пароля, дубликат имени - ошибка без побочных эффектов.
func (s *adminService) CreateAccount(ctx context.Context, username, password string) (*models.AdminAccount, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "admin",
		"method":   "CreateAccount",
		"username": username,
	})
	log.Info("Attempting to create a new admin account")

	hash, err := security.HashPassword(password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		return nil, fmt.Errorf("service: could not hash password: %w", err)
	}

	account := &models.AdminAccount{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			log.Warn("Attempted to create an admin account with an existing username")
			return nil, ErrUsernameTaken
		}
		log.WithError(err).Error("Failed to create admin account in repository")
		return nil, fmt.Errorf("service: could not create admin account: %w", err)
	}

	log.WithField("account_id", account.ID).Info("Admin account created successfully")
	return account, nil
}

// SetAccountActive включает или выключает учетную запись.
// Собственную учетную запись деактивировать нельзя, повторная установка
// того же состояния - no-op успех.
func (s *adminService) SetAccountActive(ctx context.Context, actorID, id int64, active bool) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "admin",
		"method":     "SetAccountActive",
		"account_id": id,
		"active":     active,
	})

	if actorID == id {
		log.Warn("Admin attempted to toggle own account")
		return ErrSelfAction
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		log.WithError(err).Error("Failed to set active flag in repository")
		return fmt.Errorf("service: could not update admin account: %w", err)
	}

	// Деактивация немедленно завершает открытые сессии учетной записи
	if !active {
		if err := s.sessions.DeleteAllForAdmin(ctx, id); err != nil {
			log.WithError(err).Warn("Failed to invalidate sessions for deactivated account")
		}
	}

	log.Info("Admin account active flag updated")
	return nil
}

// ResetPassword заменяет пароль учетной записи.
// Все открытые сессии этой учетной записи инвалидируются.
func (s *adminService) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "admin",
		"method":     "ResetPassword",
		"account_id": id,
	})
	log.Info("Attempting to reset admin account password")

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		log.WithError(err).Error("Failed to hash new password")
		return fmt.Errorf("service: could not hash password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("Attempted to reset password for a non-existent account")
			return ErrAccountNotFound
		}
		log.WithError(err).Error("Failed to update password hash in repository")
		return fmt.Errorf("service: could not reset password: %w", err)
	}

	if err := s.sessions.DeleteAllForAdmin(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate sessions after password reset")
	}

	log.Info("Admin account password reset successfully")
	return nil
}

// DeleteAccount удаляет учетную запись.
// Удаление собственной учетной записи запрещено независимо от привилегий.
func (s *adminService) DeleteAccount(ctx context.Context, actorID, id int64) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "admin",
		"method":     "DeleteAccount",
		"account_id": id,
		"actor_id":   actorID,
	})

	if actorID == id {
		log.Warn("Admin attempted to delete own account")
		return ErrSelfAction
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		log.WithError(err).Error("Failed to delete admin account in repository")
		return fmt.Errorf("service: could not delete admin account: %w", err)
	}

	if err := s.sessions.DeleteAllForAdmin(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate sessions for deleted account")
	}

	log.Info("Admin account deleted successfully")
	return nil
}

// EnsureDefaultAdmin создает учетную запись по умолчанию при старте, если ее еще нет
func (s *adminService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("service: could not check default admin: %w", err)
	}

	if _, err := s.CreateAccount(ctx, username, password); err != nil {
		return fmt.Errorf("service: could not create default admin: %w", err)
	}
	s.logger.WithField("username", username).Warn("Default admin account created, change its password after first login")
	return nil
}
