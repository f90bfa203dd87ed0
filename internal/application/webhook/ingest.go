// Package webhook contiene la entrada de leads por webhook, el relay de eventos salientes,
// la configuración de integraciones y la entrega a los destinos externos.
package webhook

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
	"github.com/jhoicas/crm-api/pkg/phone"
)

// SentinelOwner dueño de los leads cuyo equipo no se pudo resolver.
const SentinelOwner = "webhook-user"

// RequiredFields campos obligatorios del webhook entrante.
var RequiredFields = []string{"name", "email", "phone"}

// IngestRequest llamada entrante ya normalizada a Fields.
type IngestRequest struct {
	Fields      Fields
	WebhookID   string // query webhook_id
	QueryUserID string // query user_id
}

// IngestUseCase crea exactamente un lead por llamada aceptada. No deduplica.
type IngestUseCase struct {
	leads    repository.LeadRepository
	profiles repository.ProfileRepository
	settings *settings.SettingsUseCase
	notifier ports.LeadNotifier
	board    ports.BoardView
	region   string
	log      *logger.Logger
	now      func() time.Time
	async    func(func())
}

// NewIngestUseCase construye el caso de uso. notifier puede ser nil (sin SMTP).
func NewIngestUseCase(
	leads repository.LeadRepository,
	profiles repository.ProfileRepository,
	settingsUC *settings.SettingsUseCase,
	notifier ports.LeadNotifier,
	board ports.BoardView,
	region string,
	log *logger.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		leads:    leads,
		profiles: profiles,
		settings: settingsUC,
		notifier: notifier,
		board:    board,
		region:   region,
		log:      log.Component("webhook"),
		now:      time.Now,
		async:    func(fn func()) { go fn() },
	}
}

// ResolveOwner primer valor no vacío de: userId, user_id (cuerpo), user_id (query), assignedTo, centinela.
func ResolveOwner(f Fields, queryUserID string) string {
	for _, v := range []string{f.String("userId"), f.String("user_id"), strings.TrimSpace(queryUserID), f.String("assignedTo")} {
		if v != "" {
			return v
		}
	}
	return SentinelOwner
}

// Ingest valida y guarda el lead. Status siempre new; dueño y asignado = equipo resuelto.
func (uc *IngestUseCase) Ingest(ctx context.Context, in IngestRequest) (*entity.Lead, error) {
	f := in.Fields
	if f == nil {
		f = Fields{}
	}
	var missing []string
	for _, k := range RequiredFields {
		if f.String(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("Missing required fields", missing...)
	}

	webhookID := strings.TrimSpace(in.WebhookID)
	owner := ResolveOwner(f, in.QueryUserID)

	source := f.String("source")
	if source == "" {
		source = "Webhook"
		if webhookID != "" {
			source += " #" + webhookID
		}
	}

	notes := f.String("notes")
	if notes == "" {
		notes = "Lead recibido vía webhook"
		if webhookID != "" {
			notes += " (ID: " + webhookID + ")"
		}
	}
	if data := f.DataText(); data != "" {
		notes += " | Datos: " + data
	}

	now := uc.now()
	lead := &entity.Lead{
		ID:          uuid.NewString(),
		Name:        f.String("name"),
		Email:       f.String("email"),
		Phone:       phone.Normalize(f.String("phone"), uc.region),
		Company:     f.String("company"),
		Value:       f.Decimal("value"),
		Status:      entity.LeadStatusNew,
		Tags:        entity.UniqueTags(f.Tags()),
		AssignedTo:  owner,
		OwnerUserID: owner,
		Notes:       notes,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.leads.Create(ctx, lead); err != nil {
		uc.log.Error().Err(err).Str("webhook_id", webhookID).Str("owner", owner).Msg("no se pudo guardar el lead del webhook")
		return nil, &domain.PersistenceError{Op: "guardar lead", Err: err}
	}
	uc.log.Info().Str("lead_id", lead.ID).Str("webhook_id", webhookID).Str("owner", owner).Msg("lead recibido por webhook")

	uc.afterCreate(lead)
	return lead, nil
}

// afterCreate invalida la vista del equipo y avisa por correo al master, sin bloquear la respuesta.
func (uc *IngestUseCase) afterCreate(lead *entity.Lead) {
	if lead.OwnerUserID == SentinelOwner {
		return
	}
	uc.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		master, err := uc.masterOf(ctx, lead.OwnerUserID)
		if err != nil || master == nil {
			return
		}
		if uc.board != nil {
			_ = uc.board.Invalidate(ctx, master.ID)
		}
		if uc.notifier == nil {
			return
		}
		prefs, err := uc.settings.PreferencesOf(ctx, master.ID)
		if err != nil || !prefs.EmailNotifications {
			return
		}
		if err := uc.notifier.NotifyNewLead(ctx, master, lead); err != nil {
			uc.log.Warn().Err(err).Str("lead_id", lead.ID).Msg("no se pudo enviar el aviso de nuevo lead")
		}
	})
}

func (uc *IngestUseCase) masterOf(ctx context.Context, profileID string) (*entity.Profile, error) {
	p, err := uc.profiles.GetByID(ctx, profileID)
	if err != nil || p == nil {
		return nil, err
	}
	if p.IsMaster() {
		return p, nil
	}
	return uc.profiles.GetByID(ctx, p.MasterAccountID)
}
