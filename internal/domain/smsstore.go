package domain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Optimistic placeholders inserted on send carry this id prefix until the
// device echoes the authoritative record back.
const sendingIDPrefix = "sending_"

// How close an authoritative echo has to be to a placeholder's date before
// the placeholder is replaced by it.
const echoMatchWindowMillis = 30_000

// SmsStore owns the conversation table and the per-thread message lists.
// The reconciliation engine is the only writer; UI readers get copies.
type SmsStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	messages      map[string][]Message
	contacts      ContactsMap
	changes       chan struct{}
}

func NewSmsStore() *SmsStore {
	return &SmsStore{
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
		contacts:      make(ContactsMap),
		changes:       make(chan struct{}, 1),
	}
}

// Load seeds the store from persistence at startup.
func (s *SmsStore) Load(conversations []Conversation, messages map[string][]Message, contacts ContactsMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range conversations {
		s.conversations[conv.ThreadID] = conv
	}
	for threadID, msgs := range messages {
		cloned := make([]Message, len(msgs))
		copy(cloned, msgs)
		sortMessages(cloned)
		s.messages[threadID] = cloned
	}
	for phone, name := range contacts {
		s.contacts[phone] = name
	}
	s.notify()
}

// MergeConversations folds a batch into the table by thread id. Existing
// threads take the batch's last message, timestamp and contact name
// (last-writer-wins: the device always sends the most current state per
// thread); unknown threads are inserted.
func (s *SmsStore) MergeConversations(batch []Conversation) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, incoming := range batch {
		existing, ok := s.conversations[incoming.ThreadID]
		if !ok {
			if incoming.ContactName == "" {
				incoming.ContactName = s.resolveNameLocked(incoming.PhoneNumber)
			}
			s.conversations[incoming.ThreadID] = incoming

			continue
		}
		existing.LastMessage = incoming.LastMessage
		existing.Timestamp = incoming.Timestamp
		if incoming.ContactName != "" {
			existing.ContactName = incoming.ContactName
		}
		existing.Unread = incoming.Unread
		s.conversations[incoming.ThreadID] = existing
	}
	s.notify()
}

// IngestMessage appends a message to its thread unless the id is already
// present (idempotent ingestion: the first accepted record wins, even when a
// later one with the same id differs in body). An authoritative sent message
// replaces a matching optimistic placeholder instead of duplicating it.
// Returns true when the stored list changed.
func (s *SmsStore) IngestMessage(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread := s.messages[msg.ThreadID]
	for _, existing := range thread {
		if existing.ID == msg.ID {
			return false
		}
	}

	if msg.Direction == DirectionSent && !strings.HasPrefix(msg.ID, sendingIDPrefix) {
		thread = dropMatchingPlaceholder(thread, msg)
	}

	thread = append(thread, msg)
	sortMessages(thread)
	s.messages[msg.ThreadID] = thread

	if conv, ok := s.conversations[msg.ThreadID]; ok {
		conv.LastMessage = msg.Body
		conv.Timestamp = msg.Date
		s.conversations[msg.ThreadID] = conv
	}
	s.notify()

	return true
}

// AppendOptimistic inserts a synthetic sent message immediately, before the
// device confirms the send, so the thread reflects the user's action.
func (s *SmsStore) AppendOptimistic(threadID, phoneNumber, body string) Message {
	msg := Message{
		ID:        fmt.Sprintf("%s%d", sendingIDPrefix, NowMillis()),
		ThreadID:  threadID,
		Body:      body,
		Address:   phoneNumber,
		Date:      NowMillis(),
		Direction: DirectionSent,
		Read:      true,
	}
	s.IngestMessage(msg)

	return msg
}

// ApplyContacts replaces the contacts map and backfills conversation display
// names with pairwise number matching. A conversation whose number matches no
// contact keeps its current name, whatever resolved it before. First match
// wins; iteration order across contacts is unspecified.
func (s *SmsStore) ApplyContacts(contacts ContactsMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = make(ContactsMap, len(contacts))
	for phone, name := range contacts {
		s.contacts[phone] = name
	}
	for threadID, conv := range s.conversations {
		name, ok := s.lookupNameLocked(conv.PhoneNumber)
		if !ok || name == conv.ContactName {
			continue
		}
		conv.ContactName = name
		s.conversations[threadID] = conv
	}
	s.notify()
}

// Conversations returns the table sorted for display, newest thread first.
func (s *SmsStore) Conversations() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp == out[j].Timestamp {
			return out[i].ThreadID < out[j].ThreadID
		}

		return out[i].Timestamp > out[j].Timestamp
	})

	return out
}

// Messages returns a copy of one thread's messages in ascending date order.
func (s *SmsStore) Messages(threadID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[threadID]
	cloned := make([]Message, len(msgs))
	copy(cloned, msgs)

	return cloned
}

func (s *SmsStore) Contacts() ContactsMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(ContactsMap, len(s.contacts))
	for phone, name := range s.contacts {
		out[phone] = name
	}

	return out
}

// FindByNumber locates an existing conversation for a raw phone number, used
// when starting a new chat. Matching is pairwise only.
func (s *SmsStore) FindByNumber(phoneNumber string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, conv := range s.conversations {
		if NumbersMatch(conv.PhoneNumber, phoneNumber) {
			return conv, true
		}
	}

	return Conversation{}, false
}

// StartConversation inserts a placeholder thread for a number that has no
// existing conversation yet. The device assigns the real thread id once the
// first message goes out.
func (s *SmsStore) StartConversation(phoneNumber string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := Conversation{
		ThreadID:    fmt.Sprintf("new_%d", NowMillis()),
		PhoneNumber: phoneNumber,
		ContactName: s.resolveNameLocked(phoneNumber),
		Timestamp:   NowMillis(),
	}
	s.conversations[conv.ThreadID] = conv
	s.notify()

	return conv
}

func (s *SmsStore) Changes() <-chan struct{} {
	return s.changes
}

// lookupNameLocked finds a contact whose number matches pairwise. Callers
// must hold the lock.
func (s *SmsStore) lookupNameLocked(phoneNumber string) (string, bool) {
	for phone, name := range s.contacts {
		if NumbersMatch(phoneNumber, phone) {
			return name, true
		}
	}

	return "", false
}

// resolveNameLocked is lookupNameLocked with the number itself as fallback,
// for inserts that have no name at all yet.
func (s *SmsStore) resolveNameLocked(phoneNumber string) string {
	if name, ok := s.lookupNameLocked(phoneNumber); ok {
		return name
	}

	return phoneNumber
}

func (s *SmsStore) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func dropMatchingPlaceholder(thread []Message, echo Message) []Message {
	for i, existing := range thread {
		if !strings.HasPrefix(existing.ID, sendingIDPrefix) {
			continue
		}
		if existing.Body != echo.Body {
			continue
		}
		if !NumbersMatch(existing.Address, echo.Address) {
			continue
		}
		delta := echo.Date - existing.Date
		if delta < 0 {
			delta = -delta
		}
		if delta > echoMatchWindowMillis {
			continue
		}

		return append(thread[:i], thread[i+1:]...)
	}

	return thread
}

func sortMessages(msgs []Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].Date == msgs[j].Date {
			return msgs[i].ID < msgs[j].ID
		}

		return msgs[i].Date < msgs[j].Date
	})
}
