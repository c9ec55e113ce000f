package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"connectgo/internal/bus"
	"connectgo/internal/core"
	"connectgo/internal/domain"
)

// WriteQueue matches the persistence writer; writes are enqueued so ingestion
// never blocks on disk.
type WriteQueue interface {
	Enqueue(name string, fn func(context.Context) error)
}

type wireAddress struct {
	Address string `json:"address"`
}

type wireMessage struct {
	ID          json.Number   `json:"id"`
	ThreadID    json.Number   `json:"thread_id"`
	Addresses   []wireAddress `json:"addresses"`
	Body        string        `json:"body"`
	Date        int64         `json:"date"`
	MessageType int           `json:"message_type"`
	Read        bool          `json:"read"`
}

type wireBatch struct {
	Messages []wireMessage `json:"messages"`
}

const wireTypeSent = 2

// Engine is the single writer of SMS state. It turns raw message and contact
// batches from the relay into stable conversation and message tables, and
// records optimistic outgoing messages before the device confirms them.
type Engine struct {
	logger *slog.Logger
	bus    bus.MessageBus
	store  *domain.SmsStore

	// Optional persistence; nil in tests and loopback mode.
	writer      WriteQueue
	convRepo    domain.ConversationRepository
	msgRepo     domain.MessageRepository
	contactRepo domain.ContactRepository
}

func NewEngine(logger *slog.Logger, b bus.MessageBus, store *domain.SmsStore) *Engine {
	return &Engine{
		logger: logger,
		bus:    b,
		store:  store,
	}
}

// WithPersistence attaches the local cache repositories.
func (e *Engine) WithPersistence(writer WriteQueue, convRepo domain.ConversationRepository, msgRepo domain.MessageRepository, contactRepo domain.ContactRepository) *Engine {
	e.writer = writer
	e.convRepo = convRepo
	e.msgRepo = msgRepo
	e.contactRepo = contactRepo

	return e
}

func (e *Engine) Start(ctx context.Context) {
	rawSub := e.bus.Subscribe(core.TopicSmsRaw)
	contactsSub := e.bus.Subscribe(core.TopicContactsRaw)

	go func() {
		defer e.bus.Unsubscribe(rawSub, core.TopicSmsRaw)
		defer e.bus.Unsubscribe(contactsSub, core.TopicContactsRaw)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-rawSub:
				if !ok {
					return
				}
				ev, ok := msg.(core.SmsMessages)
				if !ok {
					continue
				}
				e.ingestBatch(ev)
			case msg, ok := <-contactsSub:
				if !ok {
					return
				}
				ev, ok := msg.(core.ContactsReceived)
				if !ok {
					continue
				}
				e.ingestContacts(ev)
			}
		}
	}()
}

// RecordOutgoing inserts an optimistic sent message for a user-initiated
// send, creating a placeholder conversation when the number has no thread
// yet. The command dispatcher calls this right before the Core request.
func (e *Engine) RecordOutgoing(phoneNumber, body string) {
	conv, ok := e.store.FindByNumber(phoneNumber)
	if !ok {
		conv = e.store.StartConversation(phoneNumber)
		e.logger.Info("started conversation", "thread_id", conv.ThreadID)
	}
	msg := e.store.AppendOptimistic(conv.ThreadID, phoneNumber, body)
	e.bus.Publish(core.TopicSmsEvent, MessageReceived{Message: msg})
}

// ingestBatch parses one raw batch and folds it into the tables. A malformed
// batch is dropped whole; prior state stays untouched.
func (e *Engine) ingestBatch(ev core.SmsMessages) {
	var batch wireBatch
	if err := json.Unmarshal(ev.Payload, &batch); err != nil {
		e.logger.Warn("malformed sms batch dropped", "device_id", ev.DeviceID, "error", err)
		e.bus.Publish(core.TopicSmsEvent, Error{Message: fmt.Sprintf("malformed sms batch: %v", err)})

		return
	}

	for _, wire := range batch.Messages {
		msg, err := convertMessage(wire)
		if err != nil {
			e.logger.Warn("sms message skipped", "device_id", ev.DeviceID, "error", err)

			continue
		}

		e.store.MergeConversations([]domain.Conversation{conversationFor(msg)})
		if !e.store.IngestMessage(msg) {
			continue
		}
		e.bus.Publish(core.TopicSmsEvent, MessageReceived{Message: msg})
		e.persistMessage(msg)
	}

	conversations := e.store.Conversations()
	e.bus.Publish(core.TopicSmsEvent, ConversationsReceived{Conversations: conversations})
	e.persistConversations(conversations)
}

func (e *Engine) ingestContacts(ev core.ContactsReceived) {
	contacts := ContactsFromVCards(ev.VCards)
	if len(contacts) == 0 {
		e.logger.Debug("contacts batch carried no usable entries", "device_id", ev.DeviceID)

		return
	}
	e.store.ApplyContacts(contacts)
	e.logger.Info("contacts applied", "count", len(contacts))

	conversations := e.store.Conversations()
	e.bus.Publish(core.TopicSmsEvent, ConversationsReceived{Conversations: conversations})
	e.persistConversations(conversations)

	if e.writer != nil && e.contactRepo != nil {
		e.writer.Enqueue("upsert contacts", func(ctx context.Context) error {
			return e.contactRepo.UpsertAll(ctx, contacts)
		})
	}
}

func (e *Engine) persistMessage(msg domain.Message) {
	if e.writer == nil || e.msgRepo == nil {
		return
	}
	e.writer.Enqueue("insert message", func(ctx context.Context) error {
		return e.msgRepo.Insert(ctx, msg)
	})
}

func (e *Engine) persistConversations(conversations []domain.Conversation) {
	if e.writer == nil || e.convRepo == nil {
		return
	}
	for _, conv := range conversations {
		conv := conv
		e.writer.Enqueue("upsert conversation", func(ctx context.Context) error {
			return e.convRepo.Upsert(ctx, conv)
		})
	}
}

func convertMessage(wire wireMessage) (domain.Message, error) {
	id := wire.ID.String()
	threadID := wire.ThreadID.String()
	if id == "" || threadID == "" {
		return domain.Message{}, fmt.Errorf("message missing id or thread_id")
	}

	direction := domain.DirectionReceived
	if wire.MessageType == wireTypeSent {
		direction = domain.DirectionSent
	}

	var address string
	if len(wire.Addresses) > 0 {
		address = wire.Addresses[0].Address
	}

	return domain.Message{
		ID:        id,
		ThreadID:  threadID,
		Body:      wire.Body,
		Address:   address,
		Date:      wire.Date,
		Direction: direction,
		Read:      wire.Read,
	}, nil
}

func conversationFor(msg domain.Message) domain.Conversation {
	return domain.Conversation{
		ThreadID:    msg.ThreadID,
		PhoneNumber: msg.Address,
		LastMessage: msg.Body,
		Timestamp:   msg.Date,
		Unread:      msg.Direction == domain.DirectionReceived && !msg.Read,
	}
}
