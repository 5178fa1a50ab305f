package billing

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/domain/patient"
	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/db"
	"github.com/medcore/medcore/internal/platform/ensure"
	"github.com/medcore/medcore/internal/platform/notify"
)

type auditor interface {
	RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{})
}

type notifier interface {
	SendAsync(templateID, recipient string, data map[string]string)
}

// PatientDirectory resolves the billed patient.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	invoices InvoiceRepository
	patients PatientDirectory
	notify   notifier
	audit    auditor
}

func NewService(invoices InvoiceRepository, patients PatientDirectory, n notifier, a auditor) *Service {
	return &Service{invoices: invoices, patients: patients, notify: n, audit: a}
}

type CreateInput struct {
	PatientID uuid.UUID  `json:"patient_id"`
	Items     []LineItem `json:"items"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID, actorRole string) (*Invoice, error) {
	if len(in.Items) == 0 {
		return nil, apperror.Validation("at least one line item is required")
	}
	var amount int64
	for i, item := range in.Items {
		if strings.TrimSpace(item.Description) == "" {
			return nil, apperror.Validation("item %d: description is required", i+1)
		}
		if item.Quantity <= 0 {
			return nil, apperror.Validation("item %d: quantity must be positive", i+1)
		}
		if item.UnitPriceCents < 0 {
			return nil, apperror.Validation("item %d: unit price cannot be negative", i+1)
		}
		amount += item.Total()
	}
	if err := ensure.Exists(ctx, s.patients, in.PatientID, "patient"); err != nil {
		return nil, err
	}

	inv := &Invoice{
		Number:      newInvoiceNumber(),
		PatientID:   in.PatientID,
		Items:       in.Items,
		AmountCents: amount,
		Status:      StatusUnpaid,
	}
	if actorID != uuid.Nil {
		inv.IssuedBy = &actorID
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, apperror.Internal(err)
	}

	s.notifyIssued(ctx, inv)
	s.audit.RecordAsync("invoice.create", "invoice", inv.ID.String(), actorID, actorRole, map[string]interface{}{
		"number":       inv.Number,
		"amount_cents": inv.AmountCents,
	})
	return inv, nil
}

func (s *Service) notifyIssued(ctx context.Context, inv *Invoice) {
	p, err := s.patients.GetByID(ctx, inv.PatientID)
	if err != nil || p.Email == "" {
		return
	}
	s.notify.SendAsync(notify.TemplateInvoiceIssued, p.Email, map[string]string{
		"patient_name":   p.FullName(),
		"invoice_number": inv.Number,
		"amount":         fmt.Sprintf("%d.%02d", inv.AmountCents/100, inv.AmountCents%100),
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("invoice")
		}
		return nil, apperror.Internal(err)
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Invoice, int, error) {
	items, total, err := s.invoices.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}

// Pay marks an UNPAID invoice PAID. Paying a PAID or VOID invoice is a
// conflict.
func (s *Service) Pay(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) (*Invoice, error) {
	return s.setStatus(ctx, id, StatusPaid, StatusUnpaid, "invoice.pay", actorID, actorRole)
}

// Void marks an UNPAID invoice VOID. Paid invoices cannot be voided.
func (s *Service) Void(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) (*Invoice, error) {
	return s.setStatus(ctx, id, StatusVoid, StatusUnpaid, "invoice.void", actorID, actorRole)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, to, from, action string, actorID uuid.UUID, actorRole string) (*Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != from {
		return nil, apperror.Conflict("invoice is " + inv.Status)
	}
	inv.Status = to

	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync(action, "invoice", id.String(), actorID, actorRole, nil)
	return inv, nil
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) error {
	if err := s.invoices.SoftDelete(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("invoice")
		}
		return apperror.Internal(err)
	}
	s.audit.RecordAsync("invoice.delete", "invoice", id.String(), actorID, actorRole, nil)
	return nil
}

func newInvoiceNumber() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return fmt.Sprintf("INV-%X", buf)
}
