package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// Ticket is one lumber sales transaction. The id is generated by the
// point-of-sale client, not by the server.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID            string    `bun:"id,pk" json:"id"`
	CustomerName  string    `bun:"customer_name,notnull" json:"customerName"`
	CustomerPhone string    `bun:"customer_phone" json:"customerPhone"`
	Date          string    `bun:"date,notnull" json:"date"`
	Total         float64   `bun:"total,notnull" json:"total"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// TicketItem is one line of lumber on a ticket. The id is a server-assigned
// autoincrement key; items belong to exactly one ticket and are removed with it.
type TicketItem struct {
	bun.BaseModel `bun:"table:ticket_items"`

	ID         int64   `bun:"id,pk,autoincrement" json:"id"`
	TicketID   string  `bun:"ticket_id,notnull" json:"ticketId"`
	Quantity   int     `bun:"quantity,notnull" json:"quantity"`
	Width      float64 `bun:"width,notnull" json:"width"`
	Height     float64 `bun:"height,notnull" json:"height"`
	Length     float64 `bun:"length,notnull" json:"length"`
	PricePerBF float64 `bun:"price_per_bf,notnull" json:"pricePerBF"`
	Total      float64 `bun:"total,notnull" json:"total"`
}

// TicketWithItems combines a ticket with its full line item collection, in
// insertion order. Aggregates are always written as one unit, so this is the
// only shape a single ticket is ever read back in.
type TicketWithItems struct {
	Ticket
	Items []TicketItem `json:"items"`
}

// TicketRequest is the create/update payload. On update the id comes from the
// route, not the body.
type TicketRequest struct {
	ID            string              `json:"id"`
	CustomerName  string              `json:"customerName"`
	CustomerPhone string              `json:"customerPhone"`
	Date          string              `json:"date"`
	Total         LooseFloat          `json:"total"`
	Items         []TicketItemRequest `json:"items"`
}

// TicketItemRequest is one line item in a create/update payload. The line
// total is computed by the point-of-sale client and stored as given.
type TicketItemRequest struct {
	Quantity   int     `json:"quantity"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Length     float64 `json:"length"`
	PricePerBF float64 `json:"pricePerBF"`
	Total      float64 `json:"total"`
}

// LooseFloat accepts a JSON number or a numeric string and falls back to 0
// for anything else. The original clients send totals both ways, so a
// malformed total is stored as 0 rather than rejected.
type LooseFloat float64

func (f *LooseFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = LooseFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = LooseFloat(v)
	return nil
}
