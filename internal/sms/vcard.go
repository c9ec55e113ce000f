package sms

import (
	"strings"

	"connectgo/internal/domain"
)

// ParseVCard extracts the display name and phone numbers from one VCard blob.
// FN (formatted name) wins; N is the "Family;Given;Middle;Prefix;Suffix"
// fallback.
func ParseVCard(content string) (string, []string) {
	var (
		name   string
		phones []string
	)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "FN:"):
			name = strings.TrimSpace(line[len("FN:"):])
		case name == "" && strings.HasPrefix(line, "N:"):
			parts := strings.Split(line[len("N:"):], ";")
			if len(parts) >= 2 {
				full := strings.TrimSpace(strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0]))
				if full != "" {
					name = full
				}
			}
		case strings.HasPrefix(line, "TEL"):
			if idx := strings.LastIndex(line, ":"); idx >= 0 {
				phone := strings.TrimSpace(line[idx+1:])
				if phone != "" {
					phones = append(phones, phone)
				}
			}
		}
	}

	return name, phones
}

// ContactsFromVCards flattens a VCard batch into a phone -> name map.
// Cards without a name or without numbers contribute nothing.
func ContactsFromVCards(vcards []string) domain.ContactsMap {
	contacts := make(domain.ContactsMap)
	for _, card := range vcards {
		name, phones := ParseVCard(card)
		if name == "" {
			continue
		}
		for _, phone := range phones {
			contacts[phone] = name
		}
	}

	return contacts
}
