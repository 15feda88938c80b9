package notify

import "racket-club-bot/internal/models"

// Dispatcher - транспорт доставки объявлений. Core решает, отправлять
// ли и что именно; сам канал доставки - деталь реализации.
type Dispatcher interface {
	Dispatch(announcement models.Announcement) error
}
