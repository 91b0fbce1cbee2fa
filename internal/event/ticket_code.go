package event

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// TicketSigner produces the value encoded in the barcode of a ticket
type TicketSigner interface {
	TicketCode(ticket Ticket, event Event) string
}

// HMACTicketSigner signs tickets with the event private key.
//
// The code is "{uuid}/{base64(HMAC-SHA256(eventKey, uuid/fullName/email))}", the format check-in scanners verify.
type HMACTicketSigner struct{}

func (HMACTicketSigner) TicketCode(ticket Ticket, event Event) string {
	mac := hmac.New(sha256.New, []byte(event.PrivateKey))
	mac.Write([]byte(strings.Join([]string{ticket.UUID, ticket.FullName, ticket.Email}, "/")))
	return ticket.UUID + "/" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
