package payment

import (
	"context"
	"fmt"
)

// Gateway is the external payment provider.
type Gateway interface {
	CreateSession(ctx context.Context, intent Intent) (*SessionRef, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}

// GatewayError is a request the gateway understood and rejected. Received marks
// which intent fields it considered present and valid.
type GatewayError struct {
	Message  string
	Received map[string]bool
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway rejected request: %s: %v", e.Message, e.Err)
	}
	return "gateway rejected request: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
