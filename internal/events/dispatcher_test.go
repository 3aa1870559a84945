package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	boom := errors.New("boom")

	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventTicketEscalated, "TKT-20260101-0001", ActorRequester, nil))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v", calls)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 10); got != "short" {
		t.Errorf("Preview = %q", got)
	}
	if got := Preview("ünïcödé text", 4); got != "ünïc…" {
		t.Errorf("Preview = %q", got)
	}
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	ran := false
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		panic("notifier exploded")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventTicketCreated, "TKT-20260101-0001", ActorRequester, nil))
	if err == nil {
		t.Fatal("expected the panic to be reported as an error")
	}
	if !ran {
		t.Fatal("second handler did not run")
	}
}
