// Package users — service.go содержит бизнес-логику работы с пользователями.
package users

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Service управляет пользователями бота.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// EnsureUser гарантирует, что пользователь есть в базе.
// Вызывается на каждом входящем сообщении; ошибка логируется выше.
func (s *Service) EnsureUser(ctx context.Context, telegramID int64, username string) error {
	return s.repo.Ensure(ctx, telegramID, username)
}

// IsBanned проверяет, забанен ли пользователь.
func (s *Service) IsBanned(ctx context.Context, telegramID int64) (bool, error) {
	return s.repo.IsBanned(ctx, telegramID)
}

// Get возвращает пользователя по Telegram ID.
func (s *Service) Get(ctx context.Context, telegramID int64) (*User, error) {
	return s.repo.GetByID(ctx, telegramID)
}

// Resolve находит пользователя по "@username" или числовому ID в текстовом виде.
// Используется админ-командами (/banuser, /userinfo, /vipgrant).
func (s *Service) Resolve(ctx context.Context, ref string) (*User, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "@") {
		return s.repo.GetByUsername(ctx, strings.TrimPrefix(ref, "@"))
	}
	id, err := parseID(ref)
	if err != nil {
		return s.repo.GetByUsername(ctx, ref)
	}
	return s.repo.GetByID(ctx, id)
}

// Ban банит пользователя. Бан не удаляет данные — только запрещает действия.
func (s *Service) Ban(ctx context.Context, telegramID int64) error {
	if err := s.repo.SetBanned(ctx, telegramID, true); err != nil {
		return err
	}
	log.WithField("user_id", telegramID).Info("Пользователь забанен")
	return nil
}

// Unban снимает бан.
func (s *Service) Unban(ctx context.Context, telegramID int64) error {
	if err := s.repo.SetBanned(ctx, telegramID, false); err != nil {
		return err
	}
	log.WithField("user_id", telegramID).Info("Бан снят")
	return nil
}

// SetTier обновляет тариф (вызывается подписочным сервисом).
func (s *Service) SetTier(ctx context.Context, telegramID int64, tier string) error {
	return s.repo.SetTier(ctx, telegramID, tier)
}

// Count возвращает статистику пользователей.
func (s *Service) Count(ctx context.Context) (total, banned int64, err error) {
	return s.repo.Count(ctx)
}

// AllIDs — все незабаненные пользователи (для /broadcast).
func (s *Service) AllIDs(ctx context.Context) ([]int64, error) {
	return s.repo.AllIDs(ctx)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
