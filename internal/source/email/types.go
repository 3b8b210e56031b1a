package email

import "time"

// Address is a single mailbox found in a message envelope.
type Address struct {
	Name  string
	Email string
}

// Envelope holds the header data of an IMAP message that contact
// discovery needs.
type Envelope struct {
	UID     uint32
	Subject string
	Date    time.Time
	From    []Address
	To      []Address
	Cc      []Address
}

// AuthError is returned when the IMAP server rejects the credentials.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return "authentication failed for " + e.Username + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
