package tickets

import (
	"context"
	"fmt"
	"strings"

	"lumber-tickets/internal/models"
	"lumber-tickets/internal/tickets/db"
)

// TicketDBLayer is the storage surface the service depends on. The real
// implementation is db.DB; tests substitute a map-backed mock.
type TicketDBLayer interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	GetTicketByID(ctx context.Context, id string) (*models.TicketWithItems, error)
	CreateTicket(ctx context.Context, ticket models.Ticket, items []models.TicketItem) (*models.TicketWithItems, error)
	UpdateTicket(ctx context.Context, id string, ticket models.Ticket, items []models.TicketItem) (*models.TicketWithItems, error)
	DeleteTicket(ctx context.Context, id string) (bool, error)
}

// EventPublisher streams ticket change events to downstream consumers.
// A nil publisher disables events entirely.
type EventPublisher interface {
	PublishTicketCreated(ticket models.TicketWithItems) error
	PublishTicketUpdated(ticket models.TicketWithItems) error
	PublishTicketDeleted(ticketID string) error
}

// ValidationError reports the required fields missing from a create or
// update payload. The payload never reaches storage.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required ticket information: " + strings.Join(e.Missing, ", ")
}

type TicketService struct {
	DB     TicketDBLayer
	Events EventPublisher
}

func NewTicketService(db TicketDBLayer, events EventPublisher) *TicketService {
	return &TicketService{DB: db, Events: events}
}

// ListTickets returns all tickets without items, most recent first.
func (s *TicketService) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets, err := s.DB.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket returns a ticket with its items, or db.ErrTicketNotFound.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*models.TicketWithItems, error) {
	return s.DB.GetTicketByID(ctx, id)
}

// CreateTicket validates the payload and stores the aggregate in one atomic
// write. The id must not already exist; a duplicate fails the whole create.
func (s *TicketService) CreateTicket(ctx context.Context, req models.TicketRequest) (*models.TicketWithItems, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	ticket, items := buildAggregate(req)
	ticket.ID = req.ID

	created, err := s.DB.CreateTicket(ctx, ticket, items)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket %s: %w", req.ID, err)
	}

	s.publish(func() error { return s.Events.PublishTicketCreated(*created) })
	return created, nil
}

// UpdateTicket validates the payload, confirms the ticket exists, then
// overwrites its fields and replaces the entire item set in one atomic write.
// A concurrent delete between the check and the write is not defended
// against; the deployment is a single yard on a local network.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, req models.TicketRequest) (*models.TicketWithItems, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	if _, err := s.DB.GetTicketByID(ctx, id); err != nil {
		return nil, err
	}

	ticket, items := buildAggregate(req)

	updated, err := s.DB.UpdateTicket(ctx, id, ticket, items)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket %s: %w", id, err)
	}

	s.publish(func() error { return s.Events.PublishTicketUpdated(*updated) })
	return updated, nil
}

// DeleteTicket confirms the ticket exists and removes it together with all
// of its items.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	if _, err := s.DB.GetTicketByID(ctx, id); err != nil {
		return err
	}

	removed, err := s.DB.DeleteTicket(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket %s: %w", id, err)
	}
	if !removed {
		return db.ErrTicketNotFound
	}

	s.publish(func() error { return s.Events.PublishTicketDeleted(id) })
	return nil
}

// publish runs an event publish without letting a broker failure fail the
// request; storage has already committed by the time events go out.
func (s *TicketService) publish(fn func() error) {
	if s.Events == nil {
		return
	}
	_ = fn()
}

func validateCreate(req models.TicketRequest) error {
	var missing []string
	if req.ID == "" {
		missing = append(missing, "id")
	}
	missing = append(missing, missingUpdateFields(req)...)
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func validateUpdate(req models.TicketRequest) error {
	if missing := missingUpdateFields(req); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func missingUpdateFields(req models.TicketRequest) []string {
	var missing []string
	if req.CustomerName == "" {
		missing = append(missing, "customerName")
	}
	if req.Date == "" {
		missing = append(missing, "date")
	}
	// A nil slice means items was absent or not an array; an empty item
	// list is allowed.
	if req.Items == nil {
		missing = append(missing, "items")
	}
	return missing
}

// buildAggregate normalizes the request into storage records: the phone
// defaults to empty, the total has already been leniently coerced, and line
// totals are stored as the client computed them.
func buildAggregate(req models.TicketRequest) (models.Ticket, []models.TicketItem) {
	ticket := models.Ticket{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Date:          req.Date,
		Total:         float64(req.Total),
	}

	items := make([]models.TicketItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.TicketItem{
			Quantity:   item.Quantity,
			Width:      item.Width,
			Height:     item.Height,
			Length:     item.Length,
			PricePerBF: item.PricePerBF,
			Total:      item.Total,
		}
	}
	return ticket, items
}
