package line

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSender struct {
	got  chan []Message
	fail bool
}

func (f *fakeSender) Reply(ctx context.Context, replyToken string, messages []Message) error {
	if f.fail {
		return errors.New("boom")
	}
	f.got <- messages
	return nil
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &fakeSender{got: make(chan []Message, 1)}
	d := NewDispatcher(sender, 4)
	d.Start()
	defer d.Close()

	if ok := d.Enqueue("rt", []Message{NewText("こんにちは")}); !ok {
		t.Fatal("enqueue refused with room in the queue")
	}

	select {
	case msgs := <-sender.got:
		if len(msgs) != 1 || msgs[0].Text != "こんにちは" {
			t.Fatalf("delivered %+v", msgs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// Worker not started, so the queue cannot drain.
	sender := &fakeSender{got: make(chan []Message, 1)}
	d := NewDispatcher(sender, 1)

	if ok := d.Enqueue("rt", []Message{NewText("a")}); !ok {
		t.Fatal("first enqueue should fit")
	}
	if ok := d.Enqueue("rt", []Message{NewText("b")}); ok {
		t.Fatal("second enqueue should be dropped")
	}
}

func TestDispatcherSurvivesSendFailure(t *testing.T) {
	sender := &fakeSender{got: make(chan []Message, 2), fail: true}
	d := NewDispatcher(sender, 4)
	d.Start()

	d.Enqueue("rt", []Message{NewText("a")})
	d.Enqueue("rt", []Message{NewText("b")})
	// Close drains the queue; a delivery failure must not wedge the worker.
	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker wedged after delivery failure")
	}
}
