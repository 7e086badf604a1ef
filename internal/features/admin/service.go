// Package admin — service.go содержит логику аутентификации и сводной
// статистики для администраторов.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/config"
)

const (
	sessionTTL    = 24 * time.Hour
	maxFailures   = 3
	failureWindow = 1 * time.Hour
)

// Service управляет аутентификацией админов.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Login проверяет пароль администратора по хешу Argon2id.
// Защита от brute-force: 3 неудачные попытки — блокировка на 1 час.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	failures, err := s.repo.RecentFailures(ctx, userID, failureWindow)
	if err != nil {
		return err
	}
	if failures >= maxFailures {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if logErr := s.repo.LogAttempt(ctx, userID, match); logErr != nil {
		log.WithError(logErr).Warn("Ошибка записи попытки входа")
	}
	if !match {
		return common.ErrWrongPassword
	}

	session := &Session{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    time.Now().Add(sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Администратор вошёл в панель")
	return nil
}

// IsAuthenticated: пользователь в списке админов и имеет живую сессию.
func (s *Service) IsAuthenticated(ctx context.Context, userID int64) bool {
	if !s.cfg.IsAdmin(userID) {
		return false
	}
	session, err := s.repo.ActiveSession(ctx, userID)
	if err != nil || session == nil {
		return false
	}
	if err := s.repo.TouchActivity(ctx, userID); err != nil {
		log.WithError(err).Warn("Ошибка обновления активности сессии")
	}
	return true
}

// Logout закрывает сессии пользователя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.Deactivate(ctx, userID)
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
