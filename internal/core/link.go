package core

import "errors"

// ErrNotConnected is returned by every command when the Core link is not
// established yet. Commands fail fast instead of queuing.
var ErrNotConnected = errors.New("core link not connected")

// Link is the command surface toward the Core plus its event stream. The
// protocol engine behind it (discovery, encryption, pairing handshake) is an
// external collaborator; this interface is its entire contract.
//
// Events returns the stream the relay drains; the channel closing means "no
// more events", not an error. Commands are best effort: the Core does not
// correlate responses, so callers get only delivery failures back.
type Link interface {
	Events() <-chan Event

	Pair(deviceID string) error
	Unpair(deviceID string) error
	Ping(deviceID, message string) error
	SendFiles(deviceID string, paths []string) error
	SendClipboard(deviceID, content string) error
	RequestConversations(deviceID string) error
	RequestConversation(deviceID string, threadID int64) error
	SendSms(deviceID, phoneNumber, message string) error
	StartSftpBrowsing(deviceID string) error
	ExecuteCommand(deviceID, commandKey string) error
}
