package domain

import (
	"context"
	"fmt"
)

const defaultRecentMessagesLoad = 200

// LoadSmsStoreFromRepositories seeds the in-memory SMS state from the local
// cache so the conversation list renders before the device reconnects.
func LoadSmsStoreFromRepositories(ctx context.Context, store *SmsStore, convRepo ConversationRepository, msgRepo MessageRepository, contactRepo ContactRepository) error {
	conversations, err := convRepo.ListSortedByTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("load conversations from db: %w", err)
	}
	messages, err := msgRepo.LoadRecentPerThread(ctx, defaultRecentMessagesLoad)
	if err != nil {
		return fmt.Errorf("load messages from db: %w", err)
	}
	contacts, err := contactRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load contacts from db: %w", err)
	}

	store.Load(conversations, messages, contacts)

	return nil
}
