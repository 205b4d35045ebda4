package line

import (
	"context"
	"log"
	"time"
)

// Sender pushes a finished payload to the messaging platform.
type Sender interface {
	Reply(ctx context.Context, replyToken string, messages []Message) error
}

type job struct {
	replyToken string
	messages   []Message
}

// Dispatcher delivers replies from a bounded queue so the webhook response
// never waits on the platform API. Delivery is single-attempt; failures and
// queue-full drops are logged, never retried.
type Dispatcher struct {
	sender Sender
	queue  chan job
	done   chan struct{}
}

func NewDispatcher(sender Sender, queueSize int) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		queue:  make(chan job, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		log.Println("reply dispatcher started")
		for j := range d.queue {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if err := d.sender.Reply(ctx, j.replyToken, j.messages); err != nil {
				log.Printf("reply delivery failed for token %s: %v", j.replyToken, err)
			}
			cancel()
		}
	}()
}

// Enqueue hands a reply to the worker. It never blocks; a full queue drops
// the reply and returns false.
func (d *Dispatcher) Enqueue(replyToken string, messages []Message) bool {
	select {
	case d.queue <- job{replyToken: replyToken, messages: messages}:
		return true
	default:
		log.Printf("reply queue full, dropping reply for token %s", replyToken)
		return false
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}
