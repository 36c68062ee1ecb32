package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StaticGateway simulates a processor that always issues a session. Used in
// development without gateway credentials and in unit tests.
type StaticGateway struct{}

// CreateSession returns a synthetic session with a predictable redirect URL.
func (StaticGateway) CreateSession(_ context.Context, req SessionRequest) (Session, error) {
	id := "cs_" + uuid.NewString()
	return Session{
		ID:          id,
		RedirectURL: fmt.Sprintf("https://checkout.example.test/pay/%s", id),
	}, nil
}
