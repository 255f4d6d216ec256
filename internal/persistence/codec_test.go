package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
)

func TestEncodeDecodeEvent(t *testing.T) {
	ev := api.RunEvent{
		RunnerID: "r-1",
		Seq:      7,
		At:       time.Unix(1700000000, 42),
		Type:     api.RunEventStepFailed,
		UseCase:  "Checkout",
		Flow:     "Basic flow",
		Step:     "Customer pays",
		Detail:   "card declined",
	}

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if !got.At.Equal(ev.At) {
		t.Fatalf("expected At %v, got %v", ev.At, got.At)
	}
	got.At = ev.At
	if got != ev {
		t.Fatalf("expected %+v, got %+v", ev, got)
	}
}

func TestDecodeEvent_Empty(t *testing.T) {
	_, err := DecodeEvent(nil)
	if !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestDecodeEvent_Garbage(t *testing.T) {
	if _, err := DecodeEvent([]byte("not gob")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
