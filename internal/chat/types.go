// Package chat forwards user messages to the assistant webhook and applies
// any data update carried by its replies.
package chat

import (
	"time"
)

// Sender identifies who wrote a Message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Fixed assistant texts.
const (
	GreetingText    = "Hello! I can help you analyze your dashboard data. Send me any questions or commands!"
	PlaceholderText = "Response received"
	FailureText     = "Sorry, I couldn't connect to the assistant webhook. Please check that the service is running."
)

// Message is one entry of the chat log. Messages are never modified after
// they are appended.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NoticeKind identifies a channel notification.
type NoticeKind string

const (
	// NoticeDataUpdated means a reply carried a payload that replaced the
	// record set.
	NoticeDataUpdated NoticeKind = "data_updated"
	// NoticeUpdateRejected means a reply carried a payload that could not be
	// applied. The record set is unchanged.
	NoticeUpdateRejected NoticeKind = "update_rejected"
	// NoticeConnectionFailed means the webhook could not be reached or
	// answered with an unusable response.
	NoticeConnectionFailed NoticeKind = "connection_failed"
)

// Notice is emitted alongside chat messages, separate from the log.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Detail  string     `json:"detail"`
	Version uint64     `json:"version,omitempty"`
	Err     error      `json:"-"`
	Time    time.Time  `json:"time"`
}

// Notifier receives channel notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }
