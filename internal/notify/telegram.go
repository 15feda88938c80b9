package notify

import (
	"fmt"

	"racket-club-bot/internal/models"
	"racket-club-bot/internal/models/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// TelegramDispatcher шлёт объявления в настроенные чаты клуба
type TelegramDispatcher struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
	log     *zap.SugaredLogger
}

func NewTelegramDispatcher(log *zap.SugaredLogger) (*TelegramDispatcher, error) {
	cfg := config.AppConfig.Bot

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.Debug

	log.Infof("🤖 Бот инициализирован: %s (debug: %v)", api.Self.UserName, cfg.Debug)
	log.Infof("📣 Чаты для объявлений: %v", cfg.ChannelIDs)

	return &TelegramDispatcher{
		api:     api,
		chatIDs: cfg.ChannelIDs,
		log:     log,
	}, nil
}

func (d *TelegramDispatcher) Dispatch(announcement models.Announcement) error {
	text := formatAnnouncement(announcement)

	for _, chatID := range d.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = "Markdown"
		if _, err := d.api.Send(msg); err != nil {
			return fmt.Errorf("ошибка отправки в чат %d: %w", chatID, err)
		}
	}
	return nil
}

func formatAnnouncement(a models.Announcement) string {
	header := "🎾 *Есть свободные места!*"
	if a.Kind == models.AnnouncementAbsenceOpened {
		header = "🔔 *Освободилось место!*"
	}

	return fmt.Sprintf(
		"%s\n\n"+
			"*%s*\n"+
			"📅 %s в %s\n"+
			"👤 Тренер: %s\n"+
			"🆓 Мест: %d\n\n"+
			"Записаться: %s",
		header,
		a.ClassName,
		a.Date.Format("02.01.2006"),
		a.StartTime,
		a.TrainerName,
		a.OpenSlots,
		a.SignupLink,
	)
}
