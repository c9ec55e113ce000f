package sms

import "connectgo/internal/domain"

// Event is the protocol event surface exposed to SMS listeners.
type Event interface {
	smsEvent()
}

// MessageReceived announces one newly ingested message.
type MessageReceived struct {
	Message domain.Message
}

// ConversationsReceived carries the full conversation table after a merge,
// already sorted for display.
type ConversationsReceived struct {
	Conversations []domain.Conversation
}

// Error reports a dropped batch; prior state is retained unchanged.
type Error struct {
	Message string
}

func (MessageReceived) smsEvent()       {}
func (ConversationsReceived) smsEvent() {}
func (Error) smsEvent()                 {}
