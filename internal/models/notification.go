package models

import "time"

// AnnouncementKind - вид рассылки о свободном месте
type AnnouncementKind string

const (
	// Место освободилось из-за отметки "не приду"
	AnnouncementAbsenceOpened AnnouncementKind = "absence_opened"
	// В группе есть незанятые места
	AnnouncementOpenEnrollment AnnouncementKind = "open_enrollment"
)

// Announcement - готовое к отправке объявление о свободных местах.
// Core решает, отправлять ли и с каким содержимым; сама доставка -
// забота транспортного адаптера (notify.Dispatcher).
type Announcement struct {
	SeriesID    int64            `json:"series_id"`
	Kind        AnnouncementKind `json:"kind"`
	ClassName   string           `json:"class_name"`
	Date        time.Time        `json:"date"`
	StartTime   string           `json:"start_time"`
	TrainerName string           `json:"trainer_name"`
	OpenSlots   int              `json:"open_slots"`
	SignupLink  string           `json:"signup_link"`
}
