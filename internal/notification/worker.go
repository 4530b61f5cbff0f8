package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/persist"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// message is one queued completion event.
type message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WorkerPool fans completion events out to every persisted push
// subscription. Delivery is fire-and-forget: the queue is buffered, and
// a full queue drops the event rather than blocking the ingest path.
type WorkerPool struct {
	size    int
	jobs    chan message
	subs    *persist.Document[model.PushSubscription]
	options *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs *persist.Document[model.PushSubscription], options *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan message, size*4),
		subs:    subs,
		options: options,
		sender:  WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Notify queues a completion event. It implements telemetry.Notifier.
func (wp *WorkerPool) Notify(title, body string) {
	select {
	case wp.jobs <- message{Title: title, Body: body}:
	default:
		log.Printf("notification queue full, dropping %q", title)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case msg := <-wp.jobs:
			wp.deliver(msg)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// deliver sends one event to all persisted subscriptions.
func (wp *WorkerPool) deliver(msg message) {
	subs, err := wp.subs.Load()
	if err != nil {
		log.Printf("loading push subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshaling notification payload: %v", err)
		return
	}

	log.Printf("sending %d notifications for %q", len(subs), msg.Title)
	for _, sub := range subs {
		wp.send(sub, payload)
	}
}

// send delivers a single web push notification and prunes the
// subscription if the push service reports it gone.
func (wp *WorkerPool) send(sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.options)
	if err != nil {
		log.Printf("sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.subs.Update(func(all []model.PushSubscription) []model.PushSubscription {
			kept := make([]model.PushSubscription, 0, len(all))
			for _, s := range all {
				if s.Endpoint != sub.Endpoint {
					kept = append(kept, s)
				}
			}
			return kept
		}); err != nil {
			log.Printf("deleting expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
