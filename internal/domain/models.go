package domain

import "time"

// PairState tracks the pairing lifecycle of a remote device.
type PairState int

const (
	PairStateNotPaired PairState = iota + 1
	PairStateRequested
	PairStatePaired
)

func (s PairState) String() string {
	switch s {
	case PairStateNotPaired:
		return "not_paired"
	case PairStateRequested:
		return "requested"
	case PairStatePaired:
		return "paired"
	default:
		return "unknown"
	}
}

// Capabilities lists the remote plugins a device announced support for.
type Capabilities struct {
	Battery        bool
	Ping           bool
	Share          bool
	SFTP           bool
	SMS            bool
	Contacts       bool
	Clipboard      bool
	Mpris          bool
	FindMyPhone    bool
	RemoteKeyboard bool
	Presenter      bool
	LockDevice     bool
	VirtualMonitor bool
}

// Device is the last-known record for a remote device. A device exists in the
// cache iff it has been observed as connected; disconnect removes it entirely.
type Device struct {
	ID             string
	Name           string
	Type           string
	PairState      PairState
	Reachable      bool
	Capabilities   Capabilities
	BatteryLevel   *int
	Charging       *bool
	SignalStrength *int
	NetworkType    string
}

// MessageDirection distinguishes received from sent SMS messages.
type MessageDirection int

const (
	DirectionReceived MessageDirection = iota + 1
	DirectionSent
)

// Conversation is one SMS thread, unique by ThreadID. PhoneNumber keeps the
// raw form as received from the device; ContactName falls back to it until a
// contacts batch resolves a display name.
type Conversation struct {
	ThreadID    string
	PhoneNumber string
	ContactName string
	LastMessage string
	Timestamp   int64
	Unread      bool
}

// Message is one SMS message inside a thread, unique by ID.
type Message struct {
	ID        string
	ThreadID  string
	Body      string
	Address   string
	Date      int64
	Direction MessageDirection
	Read      bool
}

// ContactsMap maps a phone number to a display name.
type ContactsMap map[string]string

func NowMillis() int64 {
	return time.Now().UnixMilli()
}
