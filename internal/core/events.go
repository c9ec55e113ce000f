package core

import (
	"encoding/json"
	"time"

	"connectgo/internal/domain"
)

// Event is one item of the Core's asynchronous event stream. The set is
// closed and known at compile time; the relay switches over it exhaustively.
type Event interface {
	coreEvent()
}

// Connected announces a device that became reachable, carrying its full
// record as the Core knows it.
type Connected struct {
	DeviceID string
	Device   domain.Device
}

// DevicePaired announces a completed pairing handshake with the refreshed
// device record.
type DevicePaired struct {
	DeviceID string
	Device   domain.Device
}

// Disconnected removes a device from the live set; it is re-announced on the
// next discovery.
type Disconnected struct {
	DeviceID string
}

// PairStateChanged reports a pairing lifecycle transition for an
// already-known device.
type PairStateChanged struct {
	DeviceID string
	State    domain.PairState
}

// ClipboardReceived carries clipboard content pushed by a device.
type ClipboardReceived struct {
	DeviceID string
	Content  string
}

// StateUpdated carries asynchronously settling optional fields. Nil pointers
// mean "unchanged".
type StateUpdated struct {
	DeviceID       string
	BatteryLevel   *int
	Charging       *bool
	SignalStrength *int
	NetworkType    string
}

// Mpris is an opaque media-player payload passed through to listeners.
type Mpris struct {
	DeviceID string
	Payload  json.RawMessage
}

// SmsMessages is a raw message batch ({"messages": [...]}); the
// reconciliation engine parses it and drops malformed batches.
type SmsMessages struct {
	DeviceID string
	Payload  json.RawMessage
}

// ContactsReceived carries a batch of VCard blobs from the contacts plugin.
type ContactsReceived struct {
	DeviceID string
	VCards   []string
}

func (Connected) coreEvent()         {}
func (DevicePaired) coreEvent()      {}
func (Disconnected) coreEvent()      {}
func (PairStateChanged) coreEvent()  {}
func (ClipboardReceived) coreEvent() {}
func (StateUpdated) coreEvent()      {}
func (Mpris) coreEvent()             {}
func (SmsMessages) coreEvent()       {}
func (ContactsReceived) coreEvent()  {}

// ConnState describes the lifecycle of the Core event stream itself.
type ConnState string

const (
	ConnStateRunning ConnState = "running"
	ConnStateStopped ConnState = "stopped"
)

// ConnStatus is a bus snapshot of the event stream state.
type ConnStatus struct {
	State     ConnState
	Timestamp time.Time
}
