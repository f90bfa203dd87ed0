package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/pkg/logger"
)

// ChangesChannel canal NOTIFY del trigger de leads.
const ChangesChannel = "lead_changes"

// ChangeHandler procesa un payload del canal de cambios.
type ChangeHandler func(ctx context.Context, payload string) error

// ChangeListener mantiene una conexión dedicada con LISTEN y reenvía cada notificación al handler.
// Si la conexión se cae, reconecta con espera creciente hasta que el contexto se cancele.
type ChangeListener struct {
	cfg     *pgx.ConnConfig
	handler ChangeHandler
	log     *logger.Logger
}

// NewChangeListener construye el listener con la configuración de ConnConfig.
func NewChangeListener(cfg *pgx.ConnConfig, handler ChangeHandler, log *logger.Logger) *ChangeListener {
	return &ChangeListener{cfg: cfg, handler: handler, log: log.Component("lead_changes")}
}

// Run bloquea hasta que ctx se cancele.
func (l *ChangeListener) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn().Err(err).Dur("retry_in", backoff).Msg("listener de cambios desconectado")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context) error {
	conn, err := pgx.ConnectConfig(ctx, l.cfg)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+ChangesChannel); err != nil {
		return err
	}
	l.log.Info().Str("channel", ChangesChannel).Msg("escuchando cambios de leads")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n == nil {
			return errors.New("notificación vacía")
		}
		if err := l.handler(ctx, n.Payload); err != nil {
			l.log.Warn().Err(err).Str("payload", n.Payload).Msg("cambio de lead no procesado")
		}
	}
}
