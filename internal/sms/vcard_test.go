package sms

import "testing"

func TestParseVCard_FormattedName(t *testing.T) {
	name, phones := ParseVCard("BEGIN:VCARD\nVERSION:3.0\nFN:Alice Smith\nN:Smith;Alice;;;\nTEL;TYPE=CELL:+1-555-123-4567\nTEL:5559876543\nEND:VCARD")

	if name != "Alice Smith" {
		t.Fatalf("expected formatted name, got %q", name)
	}
	if len(phones) != 2 || phones[0] != "+1-555-123-4567" || phones[1] != "5559876543" {
		t.Fatalf("unexpected phones: %v", phones)
	}
}

func TestParseVCard_StructuredNameFallback(t *testing.T) {
	name, _ := ParseVCard("BEGIN:VCARD\nN:Smith;Alice;;;\nTEL:5551234567\nEND:VCARD")

	if name != "Alice Smith" {
		t.Fatalf("expected given-then-family fallback, got %q", name)
	}
}

func TestParseVCard_NoName(t *testing.T) {
	name, phones := ParseVCard("BEGIN:VCARD\nTEL:5551234567\nEND:VCARD")

	if name != "" {
		t.Fatalf("expected empty name, got %q", name)
	}
	if len(phones) != 1 {
		t.Fatalf("expected the number anyway, got %v", phones)
	}
}

func TestContactsFromVCards(t *testing.T) {
	contacts := ContactsFromVCards([]string{
		"BEGIN:VCARD\nFN:Alice\nTEL:5551234567\nTEL:5550001111\nEND:VCARD",
		"BEGIN:VCARD\nFN:Bob\nEND:VCARD",
		"BEGIN:VCARD\nTEL:5552223333\nEND:VCARD",
	})

	if len(contacts) != 2 {
		t.Fatalf("expected two entries, got %d: %v", len(contacts), contacts)
	}
	if contacts["5551234567"] != "Alice" || contacts["5550001111"] != "Alice" {
		t.Fatalf("expected both of Alice's numbers mapped, got %v", contacts)
	}
	if _, ok := contacts["5552223333"]; ok {
		t.Fatal("expected nameless card to contribute nothing")
	}
}
