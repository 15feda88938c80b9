package booking_service

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// keyedMutex сериализует изменения по ключу (серия, дата):
// проверка мест, решение по заявке и вставка замены читают и пишут
// общие счётчики, без взаимного исключения два актёра займут
// последнее место одновременно.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(seriesID int64, date time.Time) func() {
	return k.lockKey(fmt.Sprintf("%d:%s", seriesID, date.Format("2006-01-02")))
}

// lockSeries - исключение по серии целиком, без привязки к дате.
// Сериализует запись в постоянный состав.
func (k *keyedMutex) lockSeries(seriesID int64) func() {
	return k.lockKey(strconv.FormatInt(seriesID, 10))
}

func (k *keyedMutex) lockKey(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
