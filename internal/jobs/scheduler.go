// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическая сверка сигналов
// и алертов с рынком, ежечасные напоминания об истечении подписки.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/config"
	"serotonyl.ru/signal-bot/internal/features/alerts"
	"serotonyl.ru/signal-bot/internal/features/signals"
	"serotonyl.ru/signal-bot/internal/features/subscription"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	cfg        *config.Config
	sigService *signals.Service
	alrService *alerts.Service
	subService *subscription.Service

	sendUser    func(userID int64, text string) error
	sendChannel func(text string)
}

// NewScheduler создаёт планировщик в часовом поясе из конфига.
func NewScheduler(
	cfg *config.Config,
	sigService *signals.Service,
	alrService *alerts.Service,
	subService *subscription.Service,
	sendUser func(userID int64, text string) error,
	sendChannel func(text string),
) *Scheduler {
	loc := common.LoadLocation(cfg.AppTimezone)
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		cfg:         cfg,
		sigService:  sigService,
		alrService:  alrService,
		subService:  subService,
		sendUser:    sendUser,
		sendChannel: sendChannel,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	every := fmt.Sprintf("@every %dm", s.cfg.JobIntervalMinutes)

	// Сверка открытых сигналов с рынком
	s.cron.AddFunc(every, func() {
		log.Debug("[CRON] Сверка сигналов")
		if err := s.sigService.ResolveOpenSignals(ctx, s.sendChannel); err != nil {
			log.WithError(err).Error("[CRON] Ошибка сверки сигналов")
		}
	})

	// Проверка ценовых алертов
	s.cron.AddFunc(every, func() {
		log.Debug("[CRON] Проверка алертов")
		if err := s.alrService.Reconcile(ctx, s.sendUser); err != nil {
			log.WithError(err).Error("[CRON] Ошибка проверки алертов")
		}
	})

	// Напоминания об истечении подписки — каждый час
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Проверка истекающих подписок")
		if err := s.subService.SendExpiryNotices(ctx, s.sendUser); err != nil {
			log.WithError(err).Error("[CRON] Ошибка напоминаний")
		}
	})

	s.cron.Start()
	log.WithFields(log.Fields{
		"interval_min": s.cfg.JobIntervalMinutes,
		"timezone":     s.cfg.AppTimezone,
	}).Info("Планировщик задач запущен")
}

// Stop останавливает планировщик и дожидается текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
