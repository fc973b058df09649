package qr

import (
	"encoding/json"

	"github.com/skip2/go-qrcode"

	"lumber-tickets/internal/models"
)

// slipPayload is what a printed sales slip carries in its QR code: enough to
// scan a slip at the counter and pull the full ticket back up.
type slipPayload struct {
	TicketID     string  `json:"ticketId"`
	CustomerName string  `json:"customerName"`
	Date         string  `json:"date"`
	Total        float64 `json:"total"`
}

type Generator struct {
	size int
}

func NewGenerator() *Generator {
	return &Generator{size: 256}
}

// TicketSlip renders the QR code PNG for a ticket's printed sales slip.
func (g *Generator) TicketSlip(ticket models.Ticket) ([]byte, error) {
	payload := slipPayload{
		TicketID:     ticket.ID,
		CustomerName: ticket.CustomerName,
		Date:         ticket.Date,
		Total:        ticket.Total,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(string(data), qrcode.Medium, g.size)
}
