package ticket_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumber-tickets/internal/models"
	"lumber-tickets/internal/tickets/db"
	"lumber-tickets/internal/tickets/ticket_api"
	tickets "lumber-tickets/internal/tickets/service"
)

// mockTicketDB backs the real service so handler tests exercise validation
// and error mapping end to end without a database.
type mockTicketDB struct {
	tickets    map[string]*models.TicketWithItems
	nextItemID int64
}

func newMockTicketDB() *mockTicketDB {
	return &mockTicketDB{tickets: make(map[string]*models.TicketWithItems), nextItemID: 1}
}

func (m *mockTicketDB) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	list := make([]models.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		list = append(list, t.Ticket)
	}
	return list, nil
}

func (m *mockTicketDB) GetTicketByID(ctx context.Context, id string) (*models.TicketWithItems, error) {
	ticket, exists := m.tickets[id]
	if !exists {
		return nil, db.ErrTicketNotFound
	}
	return ticket, nil
}

func (m *mockTicketDB) CreateTicket(ctx context.Context, ticket models.Ticket, items []models.TicketItem) (*models.TicketWithItems, error) {
	if _, exists := m.tickets[ticket.ID]; exists {
		return nil, assert.AnError
	}
	aggregate := &models.TicketWithItems{Ticket: ticket, Items: m.storeItems(ticket.ID, items)}
	m.tickets[ticket.ID] = aggregate
	return aggregate, nil
}

func (m *mockTicketDB) UpdateTicket(ctx context.Context, id string, ticket models.Ticket, items []models.TicketItem) (*models.TicketWithItems, error) {
	existing, exists := m.tickets[id]
	if !exists {
		return nil, db.ErrTicketNotFound
	}
	ticket.ID = id
	ticket.CreatedAt = existing.CreatedAt
	aggregate := &models.TicketWithItems{Ticket: ticket, Items: m.storeItems(id, items)}
	m.tickets[id] = aggregate
	return aggregate, nil
}

func (m *mockTicketDB) DeleteTicket(ctx context.Context, id string) (bool, error) {
	_, exists := m.tickets[id]
	delete(m.tickets, id)
	return exists, nil
}

func (m *mockTicketDB) storeItems(ticketID string, items []models.TicketItem) []models.TicketItem {
	stored := make([]models.TicketItem, len(items))
	for i, item := range items {
		item.ID = m.nextItemID
		item.TicketID = ticketID
		m.nextItemID++
		stored[i] = item
	}
	return stored
}

func setupRouter() (*chi.Mux, *mockTicketDB) {
	mockDB := newMockTicketDB()
	service := tickets.NewTicketService(mockDB, nil)
	handler := ticket_api.NewHandler(service, nil, false)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return r, mockDB
}

func createSampleTicket(t *testing.T, router http.Handler, id string) models.TicketWithItems {
	t.Helper()
	body := `{
		"id": "` + id + `",
		"customerName": "Acme Lumber",
		"customerPhone": "555-0100",
		"date": "2024-01-01",
		"total": "150.50",
		"items": [{"quantity":2,"width":4,"height":2,"length":8,"pricePerBF":1.5,"total":96}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/tickets", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.TicketWithItems
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func TestCreateTicketHandler(t *testing.T) {
	router, _ := setupRouter()

	created := createSampleTicket(t, router, "T1")

	assert.Equal(t, "T1", created.ID)
	assert.Equal(t, 150.5, created.Total, "string total should be coerced")
	require.Len(t, created.Items, 1)
	assert.NotZero(t, created.Items[0].ID)
	assert.Equal(t, "T1", created.Items[0].TicketID)
}

func TestCreateTicketHandlerMissingFields(t *testing.T) {
	router, mockDB := setupRouter()

	body := `{"id":"T1","date":"2024-01-01","items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/tickets", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required ticket information")
	assert.Empty(t, mockDB.tickets, "validation failure must not persist anything")
}

func TestCreateTicketHandlerInvalidJSON(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/tickets", bytes.NewBufferString(`{"items": "nope"`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTicketHandler(t *testing.T) {
	router, _ := setupRouter()
	createSampleTicket(t, router, "T1")

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/T1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got models.TicketWithItems
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Acme Lumber", got.CustomerName)
	assert.Len(t, got.Items, 1)
}

func TestGetTicketHandlerNotFound(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ticket not found")
}

func TestListTicketsHandler(t *testing.T) {
	router, _ := setupRouter()
	createSampleTicket(t, router, "T1")
	createSampleTicket(t, router, "T2")

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var list []models.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestUpdateTicketHandler(t *testing.T) {
	router, _ := setupRouter()
	createSampleTicket(t, router, "T1")

	body := `{
		"customerName": "Acme Updated",
		"date": "2024-01-02",
		"total": 36,
		"items": [{"quantity":10,"width":2,"height":2,"length":12,"pricePerBF":0.9,"total":36}]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/tickets/T1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var updated models.TicketWithItems
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Acme Updated", updated.CustomerName)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 10, updated.Items[0].Quantity)
}

func TestUpdateTicketHandlerNotFound(t *testing.T) {
	router, mockDB := setupRouter()

	body := `{"customerName":"Acme","date":"2024-01-01","items":[]}`
	req := httptest.NewRequest(http.MethodPut, "/api/tickets/missing", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, mockDB.tickets, "update of a missing id must not create rows")
}

func TestDeleteTicketHandler(t *testing.T) {
	router, _ := setupRouter()
	createSampleTicket(t, router, "T1")

	req := httptest.NewRequest(http.MethodDelete, "/api/tickets/T1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	req = httptest.NewRequest(http.MethodDelete, "/api/tickets/T1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketQRHandler(t *testing.T) {
	router, _ := setupRouter()
	createSampleTicket(t, router, "T1")

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/T1/qr", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestTicketQRHandlerNotFound(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/missing/qr", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
