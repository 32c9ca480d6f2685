package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/clientdash/internal/logger"
	"github.com/blackwell-systems/clientdash/internal/source"
)

const logModule = "chat"

// ErrEmptyMessage is returned by Send for blank input. Nothing is logged or
// sent.
var ErrEmptyMessage = errors.New("message is empty")

// Poster delivers a message to the assistant. *Client implements it.
type Poster interface {
	Post(ctx context.Context, text string, at time.Time) (Reply, error)
}

// Updater applies an update payload to the record set.
// *source.Controller implements it.
type Updater interface {
	ApplyExternalUpdate(payload source.UpdatePayload) (*source.Snapshot, error)
}

// Options configures a Channel.
type Options struct {
	Updater  Updater
	Notifier Notifier
	Logger   logger.Logger
	Now      func() time.Time
}

// Channel owns the chat log of one session. Sends are serialized so at most
// one webhook request is outstanding and each reply directly follows its
// user message.
type Channel struct {
	poster   Poster
	updater  Updater
	notifier Notifier
	log      logger.Logger
	now      func() time.Time

	// sem holds the single send slot. A queued sender gives up when its
	// context ends.
	sem chan struct{}

	mu       sync.RWMutex
	messages []Message
}

// NewChannel creates a channel whose log starts with the greeting.
func NewChannel(p Poster, opts Options) *Channel {
	ch := &Channel{
		poster:   p,
		updater:  opts.Updater,
		notifier: opts.Notifier,
		log:      opts.Logger,
		now:      opts.Now,
		sem:      make(chan struct{}, 1),
	}
	if ch.log == nil {
		ch.log = logger.NewNop()
	}
	if ch.now == nil {
		ch.now = time.Now
	}
	ch.append(SenderAssistant, GreetingText)
	return ch
}

// Send appends text as a user message, posts it, and appends the assistant
// reply. On a webhook failure the fixed failure message is appended and the
// *source.FetchError is returned together with that message. If ctx ends
// while waiting behind another send, the context error is returned with a
// zero Message and the log is left untouched.
func (ch *Channel) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	if err := ch.acquire(ctx); err != nil {
		return Message{}, err
	}
	defer ch.release()

	user := ch.append(SenderUser, text)
	ch.log.Debug(logModule, "sending message", map[string]any{"id": user.ID})

	reply, err := ch.poster.Post(ctx, text, user.Timestamp)
	if err != nil {
		var ferr *source.FetchError
		if !errors.As(err, &ferr) {
			err = &source.FetchError{URL: ch.webhookURL(), Err: err}
		}
		msg := ch.append(SenderAssistant, FailureText)
		ch.log.Warn(logModule, "webhook request failed", map[string]any{"error": err.Error()})
		ch.emit(Notice{
			Kind:   NoticeConnectionFailed,
			Title:  "Connection error",
			Detail: "Failed to connect to the assistant webhook",
			Err:    err,
		})
		return msg, err
	}

	msg := ch.append(SenderAssistant, reply.Text())

	if payload := reply.Payload(); payload != nil {
		ch.applyUpdate(payload)
	}
	return msg, nil
}

func (ch *Channel) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case ch.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	// Both cases can be ready at once; never send for a dead context.
	if err := ctx.Err(); err != nil {
		ch.release()
		return err
	}
	return nil
}

func (ch *Channel) release() { <-ch.sem }

// webhookURL names the poster's endpoint for error messages.
func (ch *Channel) webhookURL() string {
	if u, ok := ch.poster.(interface{ URL() string }); ok {
		return u.URL()
	}
	return "assistant webhook"
}

func (ch *Channel) applyUpdate(payload source.UpdatePayload) {
	if ch.updater == nil {
		ch.log.Warn(logModule, "reply carried an update but no updater is configured", nil)
		return
	}

	snap, err := ch.updater.ApplyExternalUpdate(payload)
	if err != nil {
		ch.emit(Notice{
			Kind:   NoticeUpdateRejected,
			Title:  "Update rejected",
			Detail: err.Error(),
			Err:    err,
		})
		return
	}
	ch.emit(Notice{
		Kind:    NoticeDataUpdated,
		Title:   "Dashboard updated",
		Detail:  "Data has been refreshed based on the assistant response",
		Version: snap.Version,
	})
}

func (ch *Channel) emit(n Notice) {
	n.Time = ch.now()
	if ch.notifier != nil {
		ch.notifier.Notify(n)
	}
}

func (ch *Channel) append(sender Sender, content string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: ch.now(),
	}
	ch.mu.Lock()
	ch.messages = append(ch.messages, msg)
	ch.mu.Unlock()
	return msg
}

// Log returns a copy of the chat log in append order.
func (ch *Channel) Log() []Message {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	out := make([]Message, len(ch.messages))
	copy(out, ch.messages)
	return out
}
