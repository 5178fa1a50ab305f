// Package notify renders email templates and dispatches them as a side
// effect of domain operations. Delivery failures are logged and never
// propagate to the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcore/medcore/internal/platform/mailer"
)

// Template ids used by the domain services.
const (
	TemplatePatientWelcome       = "patient-welcome"
	TemplateAppointmentBooked    = "appointment-booked"
	TemplateAppointmentCancelled = "appointment-cancelled"
	TemplateTaskAssigned         = "task-assigned"
	TemplateInvoiceIssued        = "invoice-issued"
)

// Template defines a reusable notification template.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine manages templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplatePatientWelcome,
			Subject: "Welcome to {{clinic}}",
			Body:    "Dear {{patient_name}}, your registration has been received. Your patient code is {{patient_code}}. We will notify you once your account is approved.",
		},
		{
			ID:      TemplateAppointmentBooked,
			Subject: "Appointment Booked",
			Body:    "Dear {{patient_name}}, your appointment with {{doctor_name}} is booked for {{date}} at {{time}}.",
		},
		{
			ID:      TemplateAppointmentCancelled,
			Subject: "Appointment Cancelled",
			Body:    "Dear {{patient_name}}, your appointment on {{date}} at {{time}} has been cancelled.",
		},
		{
			ID:      TemplateTaskAssigned,
			Subject: "New Task Assigned",
			Body:    "Hello {{assignee_name}}, you have been assigned a new task: {{title}}. Due: {{due}}.",
		},
		{
			ID:      TemplateInvoiceIssued,
			Subject: "Invoice {{invoice_number}}",
			Body:    "Dear {{patient_name}}, invoice {{invoice_number}} for {{amount}} has been issued.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by id and performs {{key}} replacement
// using the supplied data map. Keys present in the template but absent
// from data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Notifier sends rendered templates through a mailer.Sender. Send is
// synchronous and returns the delivery error; SendAsync dispatches in
// the background and only logs failures.
type Notifier struct {
	sender    mailer.Sender
	templates *TemplateEngine
	logger    zerolog.Logger
	timeout   time.Duration
}

func NewNotifier(sender mailer.Sender, templates *TemplateEngine, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: templates,
		logger:    logger,
		timeout:   10 * time.Second,
	}
}

// Send renders templateID with data and delivers it to recipient.
func (n *Notifier) Send(ctx context.Context, templateID, recipient string, data map[string]string) error {
	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	return n.sender.SendEmail(ctx, recipient, subject, body)
}

// SendAsync delivers in a background goroutine. The triggering request
// never waits on or fails because of mail delivery.
func (n *Notifier) SendAsync(templateID, recipient string, data map[string]string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.Send(ctx, templateID, recipient, data); err != nil {
			n.logger.Warn().Err(err).
				Str("template", templateID).
				Str("recipient", recipient).
				Msg("notification delivery failed")
		}
	}()
}
