package presence

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// ErrLockNotObtained otra instancia está volcando; se omite este ciclo.
var ErrLockNotObtained = errors.New("presence: lock ocupado")

// Locker garantiza un único volcado concurrente entre instancias.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

const flushLockKey = "lock:presence:flush"

// Flusher vuelca periódicamente el buffer de pings a los perfiles.
type Flusher struct {
	buffer   Buffer
	profiles repository.ProfileRepository
	locker   Locker
	log      *logger.Logger
	cron     *cron.Cron
}

// NewFlusher construye el volcador. locker puede ser nil (una sola instancia).
func NewFlusher(buffer Buffer, profiles repository.ProfileRepository, locker Locker, log *logger.Logger) *Flusher {
	return &Flusher{
		buffer:   buffer,
		profiles: profiles,
		locker:   locker,
		log:      log.Component("presence"),
		cron:     cron.New(),
	}
}

// Start programa el volcado con una expresión cron (ej. "@every 60s").
func (f *Flusher) Start(schedule string) error {
	if _, err := f.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := f.Flush(ctx)
		if err != nil {
			if errors.Is(err, ErrLockNotObtained) {
				f.log.Debug().Msg("volcado de presencia en curso en otra instancia")
				return
			}
			f.log.Error().Err(err).Msg("volcado de presencia")
			return
		}
		if n > 0 {
			f.log.Info().Int("profiles", n).Msg("presencia actualizada")
		}
	}); err != nil {
		return err
	}
	f.cron.Start()
	return nil
}

// Stop detiene el scheduler y espera el volcado en curso.
func (f *Flusher) Stop() {
	<-f.cron.Stop().Done()
}

// Flush escribe last_seen_at de los pings acumulados. Devuelve cuántos perfiles se tocaron.
func (f *Flusher) Flush(ctx context.Context) (int, error) {
	if f.locker != nil {
		release, err := f.locker.Obtain(ctx, flushLockKey, 30*time.Second)
		if err != nil {
			return 0, err
		}
		defer func() { _ = release(ctx) }()
	}

	pings, err := f.buffer.Drain(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for id, at := range pings {
		if err := f.profiles.TouchLastSeen(ctx, id, at); err != nil {
			f.log.Warn().Err(err).Str("profile_id", id).Msg("no se pudo actualizar last_seen_at")
			continue
		}
		n++
	}
	return n, nil
}
