package gateway

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func sampleEvent(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(Event{
		ID:   "evt_123",
		Type: EventCheckoutCompleted,
		Session: EventSession{
			ID:          "cs_abc",
			AmountTotal: 1525,
			Currency:    "eur",
			Metadata: SessionMetadata{
				UserID:         "user-1",
				WalletID:       "wallet-1",
				Reference:      "ref-1",
				Kind:           KindDeposit,
				OriginalAmount: 10_000,
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func TestConstructEventRoundTrip(t *testing.T) {
	payload := sampleEvent(t)
	secret := "whsec_test"
	header := SignPayload(payload, secret, time.Now())

	event, err := ConstructEvent(payload, header, secret, DefaultTolerance)
	if err != nil {
		t.Fatalf("construct event: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Fatalf("unexpected type %s", event.Type)
	}
	if event.Session.Metadata.Reference != "ref-1" {
		t.Fatalf("metadata lost: %+v", event.Session.Metadata)
	}
	if event.Session.Metadata.OriginalAmount != 10_000 {
		t.Fatalf("original amount lost: %d", event.Session.Metadata.OriginalAmount)
	}
}

func TestConstructEventRejectsTamperedPayload(t *testing.T) {
	payload := sampleEvent(t)
	secret := "whsec_test"
	header := SignPayload(payload, secret, time.Now())

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)/2] ^= 0xFF

	if _, err := ConstructEvent(tampered, header, secret, DefaultTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestConstructEventRejectsWrongSecret(t *testing.T) {
	payload := sampleEvent(t)
	header := SignPayload(payload, "whsec_test", time.Now())

	if _, err := ConstructEvent(payload, header, "whsec_other", DefaultTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestConstructEventRejectsStaleTimestamp(t *testing.T) {
	payload := sampleEvent(t)
	secret := "whsec_test"
	header := SignPayload(payload, secret, time.Now().Add(-time.Hour))

	if _, err := ConstructEvent(payload, header, secret, DefaultTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestConstructEventRejectsMalformedHeader(t *testing.T) {
	payload := sampleEvent(t)
	for _, header := range []string{"", "t=abc,v1=zz", "v1=deadbeef", "t=123"} {
		if _, err := ConstructEvent(payload, header, "whsec_test", DefaultTolerance); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("header %q: expected invalid signature, got %v", header, err)
		}
	}
}
