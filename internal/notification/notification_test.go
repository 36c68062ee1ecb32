package notification

import (
	"context"
	"errors"
	"testing"
)

type captureNotifier struct {
	last Message
}

func (n *captureNotifier) Send(_ context.Context, message Message) error {
	n.last = message
	return nil
}

func TestWithEmailLookupFillsRecipient(t *testing.T) {
	capture := &captureNotifier{}
	notifier := WithEmailLookup(capture, func(_ context.Context, userID string) (string, error) {
		if userID != "user-1" {
			return "", errors.New("unknown user")
		}
		return "ana@example.test", nil
	})

	if err := notifier.Send(context.Background(), Message{Kind: KindDeposit, UserID: "user-1", Amount: 100}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if capture.last.Email != "ana@example.test" {
		t.Fatalf("email not resolved, got %q", capture.last.Email)
	}
}

func TestWithEmailLookupKeepsExplicitRecipient(t *testing.T) {
	capture := &captureNotifier{}
	notifier := WithEmailLookup(capture, func(_ context.Context, _ string) (string, error) {
		return "resolved@example.test", nil
	})

	if err := notifier.Send(context.Background(), Message{UserID: "user-1", Email: "given@example.test"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if capture.last.Email != "given@example.test" {
		t.Fatalf("explicit email overwritten, got %q", capture.last.Email)
	}
}

func TestWithEmailLookupToleratesLookupFailure(t *testing.T) {
	capture := &captureNotifier{}
	notifier := WithEmailLookup(capture, func(_ context.Context, _ string) (string, error) {
		return "", errors.New("repo down")
	})

	if err := notifier.Send(context.Background(), Message{UserID: "user-1"}); err != nil {
		t.Fatalf("Send should still deliver: %v", err)
	}
	if capture.last.UserID != "user-1" {
		t.Fatalf("message not forwarded: %+v", capture.last)
	}
}
