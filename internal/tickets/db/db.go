package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"lumber-tickets/internal/models"
)

// ErrTicketNotFound is returned when no ticket exists for a requested id.
var ErrTicketNotFound = errors.New("ticket not found")

type DB struct {
	Bun *bun.DB
}

// ListTickets returns every ticket without its items, most recent first.
func (d *DB) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	err := d.Bun.NewSelect().
		Model(&tickets).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicketByID returns the ticket with its full item collection in insertion
// order, or ErrTicketNotFound.
func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.TicketWithItems, error) {
	return fetchTicket(ctx, d.Bun, id)
}

// CreateTicket inserts the ticket row and its items as one transaction. A
// duplicate id fails the whole operation and leaves nothing behind. The
// returned aggregate carries the server-assigned item ids and creation time.
func (d *DB) CreateTicket(ctx context.Context, ticket models.Ticket, items []models.TicketItem) (*models.TicketWithItems, error) {
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}

	var created *models.TicketWithItems
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&ticket).Exec(ctx); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, ticket.ID, items); err != nil {
			return err
		}
		var err error
		created, err = fetchTicket(ctx, tx, ticket.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTicket overwrites the ticket's mutable fields and replaces its entire
// item set as one transaction. The id and creation time never change. Callers
// are expected to have checked the ticket exists; updating an absent id is a
// no-op on the ticket row and reports ErrTicketNotFound from the final read.
func (d *DB) UpdateTicket(ctx context.Context, id string, ticket models.Ticket, items []models.TicketItem) (*models.TicketWithItems, error) {
	var updated *models.TicketWithItems
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ticket.ID = id
		if _, err := tx.NewUpdate().
			Model(&ticket).
			Column("customer_name", "customer_phone", "date", "total").
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*models.TicketItem)(nil)).
			Where("ticket_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		if err := insertItems(ctx, tx, id, items); err != nil {
			return err
		}

		var err error
		updated, err = fetchTicket(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTicket removes the ticket and all of its items as one transaction.
// It reports whether a ticket row was actually removed.
func (d *DB) DeleteTicket(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.TicketItem)(nil)).
			Where("ticket_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*models.Ticket)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// insertItems inserts the items one at a time so each picks up its
// autoincrement id in insertion order. Any existing ids on the inputs are
// discarded; the ticket id is stamped on each row.
func insertItems(ctx context.Context, idb bun.IDB, ticketID string, items []models.TicketItem) error {
	for i := range items {
		items[i].ID = 0
		items[i].TicketID = ticketID
		if _, err := idb.NewInsert().Model(&items[i]).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// fetchTicket reads the aggregate through either the DB or an open
// transaction, so create/update can return exactly what was committed.
func fetchTicket(ctx context.Context, idb bun.IDB, id string) (*models.TicketWithItems, error) {
	var ticket models.Ticket
	err := idb.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	items := make([]models.TicketItem, 0)
	err = idb.NewSelect().
		Model(&items).
		Where("ticket_id = ?", id).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &models.TicketWithItems{Ticket: ticket, Items: items}, nil
}
