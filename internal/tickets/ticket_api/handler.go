package ticket_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lumber-tickets/internal/logger"
	"lumber-tickets/internal/models"
	"lumber-tickets/internal/tickets/db"
	"lumber-tickets/internal/tickets/qr"
	tickets "lumber-tickets/internal/tickets/service"
)

// TicketService is the service surface the handlers depend on; tests
// substitute a mock.
type TicketService interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	GetTicket(ctx context.Context, id string) (*models.TicketWithItems, error)
	CreateTicket(ctx context.Context, req models.TicketRequest) (*models.TicketWithItems, error)
	UpdateTicket(ctx context.Context, id string, req models.TicketRequest) (*models.TicketWithItems, error)
	DeleteTicket(ctx context.Context, id string) error
}

type Handler struct {
	TicketService TicketService
	QRGenerator   *qr.Generator
	Logger        *logger.Logger
	// Debug includes internal error detail in 500 responses.
	Debug bool
}

func NewHandler(service TicketService, log *logger.Logger, debug bool) *Handler {
	return &Handler{
		TicketService: service,
		QRGenerator:   qr.NewGenerator(),
		Logger:        log,
		Debug:         debug,
	}
}

// RegisterRoutes mounts the ticket routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.ListTickets)
		r.Post("/", h.CreateTicket)
		r.Get("/{ticketID}", h.GetTicket)
		r.Put("/{ticketID}", h.UpdateTicket)
		r.Delete("/{ticketID}", h.DeleteTicket)
		r.Get("/{ticketID}/qr", h.TicketQR)
	})
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.ListTickets(r.Context())
	if err != nil {
		h.logError("LIST", "", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve tickets", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	ticket, err := h.TicketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			h.writeError(w, http.StatusNotFound, "Ticket not found", nil)
			return
		}
		h.logError("GET", ticketID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve ticket", err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req models.TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	created, err := h.TicketService.CreateTicket(r.Context(), req)
	if err != nil {
		var ve *tickets.ValidationError
		if errors.As(err, &ve) {
			h.writeError(w, http.StatusBadRequest, "Missing required ticket information", nil)
			return
		}
		h.logError("CREATE", req.ID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create ticket", err)
		return
	}

	if h.Logger != nil {
		h.Logger.LogTicket("CREATE", created.ID, fmt.Sprintf("customer=%s items=%d", created.CustomerName, len(created.Items)))
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	var req models.TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	updated, err := h.TicketService.UpdateTicket(r.Context(), ticketID, req)
	if err != nil {
		var ve *tickets.ValidationError
		switch {
		case errors.As(err, &ve):
			h.writeError(w, http.StatusBadRequest, "Missing required ticket information", nil)
		case errors.Is(err, db.ErrTicketNotFound):
			h.writeError(w, http.StatusNotFound, "Ticket not found", nil)
		default:
			h.logError("UPDATE", ticketID, err)
			h.writeError(w, http.StatusInternalServerError, "Failed to update ticket", err)
		}
		return
	}

	if h.Logger != nil {
		h.Logger.LogTicket("UPDATE", ticketID, fmt.Sprintf("items=%d", len(updated.Items)))
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	if err := h.TicketService.DeleteTicket(r.Context(), ticketID); err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			h.writeError(w, http.StatusNotFound, "Ticket not found", nil)
			return
		}
		h.logError("DELETE", ticketID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete ticket", err)
		return
	}

	if h.Logger != nil {
		h.Logger.LogTicket("DELETE", ticketID, "removed with items")
	}
	w.WriteHeader(http.StatusNoContent)
}

// TicketQR renders the printable sales slip QR code for a ticket.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	ticket, err := h.TicketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			h.writeError(w, http.StatusNotFound, "Ticket not found", nil)
			return
		}
		h.logError("QR", ticketID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve ticket", err)
		return
	}

	png, err := h.QRGenerator.TicketSlip(ticket.Ticket)
	if err != nil {
		h.logError("QR", ticketID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to generate QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) logError(action, ticketID string, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.Error("TICKET", fmt.Sprintf("[%s] %s - %v", action, ticketID, err))
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil && h.Debug {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
