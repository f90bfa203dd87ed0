// Package apptest reúne adaptadores en memoria de los puertos de persistencia para los tests
// de casos de uso. No se usa en producción.
package apptest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// ErrStore error genérico del almacén simulado.
var ErrStore = errors.New("store: conexión rechazada")

// ── Profiles ──────────────────────────────────────────────────────────────────

// Profiles repositorio de perfiles en memoria.
type Profiles struct {
	mu        sync.Mutex
	items     map[string]*entity.Profile
	order     []string
	DeleteErr error
}

var _ repository.ProfileRepository = (*Profiles)(nil)

// NewProfiles crea el repositorio con perfiles iniciales.
func NewProfiles(list ...*entity.Profile) *Profiles {
	r := &Profiles{items: map[string]*entity.Profile{}}
	for _, p := range list {
		_ = r.Create(context.Background(), p)
	}
	return r
}

func (r *Profiles) Create(_ context.Context, p *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; ok {
		return domain.ErrEmailAlreadyExists
	}
	cp := *p
	r.items[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *Profiles) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *Profiles) GetByEmail(_ context.Context, email string) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if p, ok := r.items[id]; ok && p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Profiles) ListByMaster(_ context.Context, masterID string) ([]*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Profile
	for _, id := range r.order {
		if p, ok := r.items[id]; ok && p.MasterAccountID == masterID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Profiles) UpdateName(_ context.Context, id, name string, at time.Time) error {
	return r.mutate(id, func(p *entity.Profile) { p.Name = name; p.UpdatedAt = at })
}

func (r *Profiles) SetActive(_ context.Context, id string, active bool, at time.Time) error {
	return r.mutate(id, func(p *entity.Profile) { p.IsActive = active; p.UpdatedAt = at })
}

func (r *Profiles) TouchLastSeen(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(p *entity.Profile) { t := at; p.LastSeenAt = &t })
}

func (r *Profiles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.items, id)
	return nil
}

func (r *Profiles) mutate(id string, fn func(*entity.Profile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(p)
	return nil
}

// ── Identities ────────────────────────────────────────────────────────────────

// Identities repositorio de credenciales en memoria.
type Identities struct {
	mu        sync.Mutex
	items     map[string]*entity.Identity
	DeleteErr error
}

var _ repository.IdentityRepository = (*Identities)(nil)

// NewIdentities crea el repositorio vacío.
func NewIdentities(list ...*entity.Identity) *Identities {
	r := &Identities{items: map[string]*entity.Identity{}}
	for _, i := range list {
		cp := *i
		r.items[i.ID] = &cp
	}
	return r
}

func (r *Identities) Create(_ context.Context, i *entity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.items {
		if x.Email == i.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *i
	r.items[i.ID] = &cp
	return nil
}

func (r *Identities) GetByID(_ context.Context, id string) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.items[id]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, nil
}

func (r *Identities) GetByEmail(_ context.Context, email string) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.items {
		if i.Email == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Identities) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.items, id)
	return nil
}

// Tx ejecuta el callback directamente sobre los repositorios en memoria.
type Tx struct {
	Identities *Identities
	Profiles   *Profiles
}

var _ repository.ProvisioningTx = (*Tx)(nil)

func (t *Tx) RunProvisioning(_ context.Context, fn func(repository.IdentityRepository, repository.ProfileRepository) error) error {
	return fn(t.Identities, t.Profiles)
}

// ── Leads ─────────────────────────────────────────────────────────────────────

// Leads repositorio de leads en memoria. UpdateStatusErr / CreateErr simulan fallos del almacén.
type Leads struct {
	mu              sync.Mutex
	items           map[string]*entity.Lead
	order           []string
	CreateErr       error
	UpdateStatusErr error
	ListCalls       int
}

var _ repository.LeadRepository = (*Leads)(nil)

// NewLeads crea el repositorio con leads iniciales.
func NewLeads(list ...*entity.Lead) *Leads {
	r := &Leads{items: map[string]*entity.Lead{}}
	for _, l := range list {
		cp := cloneLead(l)
		r.items[l.ID] = cp
		r.order = append(r.order, l.ID)
	}
	return r
}

func cloneLead(l *entity.Lead) *entity.Lead {
	cp := *l
	cp.Tags = append([]string(nil), l.Tags...)
	return &cp
}

func (r *Leads) Create(_ context.Context, l *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.items[l.ID] = cloneLead(l)
	r.order = append(r.order, l.ID)
	return nil
}

func (r *Leads) GetByID(_ context.Context, id string) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.items[id]; ok {
		return cloneLead(l), nil
	}
	return nil, nil
}

func (r *Leads) Update(_ context.Context, l *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[l.ID] = cloneLead(l)
	return nil
}

func (r *Leads) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateStatusErr != nil {
		return r.UpdateStatusErr
	}
	l, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = at
	return nil
}

func (r *Leads) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *Leads) DeleteMany(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *Leads) AssignMany(_ context.Context, ids []string, assignee string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if l, ok := r.items[id]; ok {
			l.AssignedTo = assignee
			l.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (r *Leads) List(_ context.Context, q repository.LeadQuery) ([]*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ListCalls++
	var out []*entity.Lead
	for _, id := range r.order {
		l, ok := r.items[id]
		if !ok || !l.InScope(q.ScopeIDs) {
			continue
		}
		if q.AssignedTo != "" && l.AssignedTo != q.AssignedTo {
			continue
		}
		if q.Status != "" && l.Status != q.Status {
			continue
		}
		out = append(out, cloneLead(l))
	}
	return out, nil
}

func (r *Leads) SourceCounts(_ context.Context, scopeIDs []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int{}
	for _, l := range r.items {
		if l.InScope(scopeIDs) {
			out[l.Source]++
		}
	}
	return out, nil
}

// Feedback hilo de comentarios en memoria.
type Feedback struct {
	mu    sync.Mutex
	items []*entity.LeadFeedback
}

var _ repository.FeedbackRepository = (*Feedback)(nil)

func (r *Feedback) Create(_ context.Context, f *entity.LeadFeedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.items = append(r.items, &cp)
	return nil
}

func (r *Feedback) ListByLead(_ context.Context, leadID string) ([]*entity.LeadFeedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.LeadFeedback
	for _, f := range r.items {
		if f.LeadID == leadID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

// Sales libro de ventas en memoria.
type Sales struct {
	mu    sync.Mutex
	items map[string]*entity.Sale
	order []string
}

var _ repository.SaleRepository = (*Sales)(nil)

// NewSales crea el repositorio con ventas iniciales.
func NewSales(list ...*entity.Sale) *Sales {
	r := &Sales{items: map[string]*entity.Sale{}}
	for _, s := range list {
		_ = r.Create(context.Background(), s)
	}
	return r
}

func (r *Sales) Create(_ context.Context, s *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.items[s.ID] = &cp
	r.order = append(r.order, s.ID)
	return nil
}

func (r *Sales) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *Sales) Update(_ context.Context, s *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *Sales) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *Sales) ListByAuthors(_ context.Context, authorIDs []string) ([]*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in := map[string]bool{}
	for _, id := range authorIDs {
		in[id] = true
	}
	var out []*entity.Sale
	for _, id := range r.order {
		if s, ok := r.items[id]; ok && in[s.UserID] {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── Webhooks / Settings ───────────────────────────────────────────────────────

// Webhooks configuración de webhooks en memoria.
type Webhooks struct {
	mu    sync.Mutex
	items map[string]*entity.Webhook
	order []string
}

var _ repository.WebhookRepository = (*Webhooks)(nil)

// NewWebhooks crea el repositorio con webhooks iniciales.
func NewWebhooks(list ...*entity.Webhook) *Webhooks {
	r := &Webhooks{items: map[string]*entity.Webhook{}}
	for _, w := range list {
		_ = r.Create(context.Background(), w)
	}
	return r
}

func (r *Webhooks) Create(_ context.Context, w *entity.Webhook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.items[w.ID] = &cp
	r.order = append(r.order, w.ID)
	return nil
}

func (r *Webhooks) GetByID(_ context.Context, id string) (*entity.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.items[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (r *Webhooks) ListByOwner(_ context.Context, ownerID string) ([]*entity.Webhook, error) {
	return r.filter(func(w *entity.Webhook) bool { return w.OwnerID == ownerID }), nil
}

func (r *Webhooks) ListActiveOutgoing(_ context.Context, ownerID string) ([]*entity.Webhook, error) {
	return r.filter(func(w *entity.Webhook) bool {
		return w.OwnerID == ownerID && w.IsActive && w.Type == entity.WebhookOutgoing
	}), nil
}

func (r *Webhooks) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	w.IsActive = active
	return nil
}

func (r *Webhooks) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *Webhooks) filter(keep func(*entity.Webhook) bool) []*entity.Webhook {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Webhook
	for _, id := range r.order {
		if w, ok := r.items[id]; ok && keep(w) {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out
}

// Settings blobs por dueño y clave en memoria.
type Settings struct {
	mu    sync.Mutex
	items map[string][]byte
}

var _ repository.SettingsRepository = (*Settings)(nil)

// NewSettings crea el repositorio vacío.
func NewSettings() *Settings { return &Settings{items: map[string][]byte{}} }

func (r *Settings) Get(_ context.Context, ownerID, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[ownerID+"/"+key], nil
}

func (r *Settings) Put(_ context.Context, ownerID, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[ownerID+"/"+key] = append([]byte(nil), value...)
	return nil
}

// ── Puertos de aplicación ─────────────────────────────────────────────────────

// Publisher registra los sobres publicados.
type Publisher struct {
	mu        sync.Mutex
	Envelopes []ports.Envelope
	Err       error
}

var _ ports.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(_ context.Context, env ports.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Envelopes = append(p.Envelopes, env)
	return nil
}

// Events nombres de los eventos publicados, en orden.
func (p *Publisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Envelopes))
	for _, e := range p.Envelopes {
		out = append(out, e.Event)
	}
	return out
}
