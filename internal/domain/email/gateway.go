package email

import "context"

// Message is a single outbound email.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	HTML      string
	Text      string // plain-text alternative, may be empty
}

// Gateway defines an interface for delivering transactional email.
// Implementations do not retry; a returned error means the message may not have been delivered.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}
