// Package mail envía el aviso de lead nuevo al master del equipo por SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/gomail.v2"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/config"
)

var _ ports.LeadNotifier = (*LeadNotifier)(nil)

// dialer lo cumple *gomail.Dialer; en tests se reemplaza.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// LeadNotifier arma y envía el correo de lead nuevo.
type LeadNotifier struct {
	from    string
	dialer  dialer
	printer *message.Printer
	unit    currency.Unit
}

// NewLeadNotifier construye el notificador con la configuración SMTP.
func NewLeadNotifier(cfg config.SMTPConfig) *LeadNotifier {
	return &LeadNotifier{
		from:    cfg.From,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		printer: message.NewPrinter(language.MustParse("es-CO")),
		unit:    currency.MustParseISO("COP"),
	}
}

// NotifyNewLead envía el correo al master. Un solo intento.
func (n *LeadNotifier) NotifyNewLead(_ context.Context, to *entity.Profile, lead *entity.Lead) error {
	if to == nil || to.Email == "" {
		return fmt.Errorf("mail: destinatario sin email")
	}
	body, err := n.render(to, lead)
	if err != nil {
		return fmt.Errorf("mail: renderizar plantilla: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to.Email)
	m.SetHeader("Subject", fmt.Sprintf("Nuevo lead: %s", lead.Name))
	m.SetBody("text/html", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mail: enviar SMTP: %w", err)
	}
	return nil
}

func (n *LeadNotifier) render(to *entity.Profile, lead *entity.Lead) (string, error) {
	rows := []g.Node{
		row("Nombre", lead.Name),
		row("Email", lead.Email),
		row("Teléfono", lead.Phone),
	}
	if lead.Company != "" {
		rows = append(rows, row("Empresa", lead.Company))
	}
	if !lead.Value.IsZero() {
		rows = append(rows, row("Valor", n.money(lead)))
	}
	rows = append(rows, row("Origen", lead.Source))
	if len(lead.Tags) > 0 {
		rows = append(rows, row("Etiquetas", strings.Join(lead.Tags, ", ")))
	}

	doc := h.Div(
		h.P(g.Textf("Hola %s,", to.Name)),
		h.P(g.Text("Llegó un lead nuevo por webhook a tu pipeline:")),
		h.Table(h.TBody(rows...)),
		g.If(lead.Notes != "", h.P(h.Em(g.Text(lead.Notes)))),
	)

	var sb strings.Builder
	if err := doc.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (n *LeadNotifier) money(lead *entity.Lead) string {
	return n.printer.Sprint(currency.Symbol(n.unit.Amount(lead.Value.InexactFloat64())))
}

func row(label, value string) g.Node {
	return h.Tr(h.Td(h.Strong(g.Text(label))), h.Td(g.Text(value)))
}
