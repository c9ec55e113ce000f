package domain

import "context"

type ConversationRepository interface {
	Upsert(ctx context.Context, c Conversation) error
	ListSortedByTimestamp(ctx context.Context) ([]Conversation, error)
}

type MessageRepository interface {
	Insert(ctx context.Context, m Message) error
	LoadRecentPerThread(ctx context.Context, limit int) (map[string][]Message, error)
}

type ContactRepository interface {
	UpsertAll(ctx context.Context, contacts ContactsMap) error
	LoadAll(ctx context.Context) (ContactsMap, error)
}
