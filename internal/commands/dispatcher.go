package commands

import (
	"log/slog"

	"connectgo/internal/core"
)

// Payload sent for a findmyphone ring; the Core treats it as a regular ping
// with a distinct body.
const ringPayload = "ring"

// OutgoingRecorder lets the SMS engine insert an optimistic message before
// the Core request goes out. The dispatcher never writes SMS state itself.
type OutgoingRecorder interface {
	RecordOutgoing(phoneNumber, body string)
}

// Dispatcher translates user actions into Core requests, one request per
// action, fire-and-forget. Failures are logged, never surfaced as typed
// errors: retries and acknowledgement tracking are the Core's business.
type Dispatcher struct {
	logger   *slog.Logger
	link     core.Link
	outgoing OutgoingRecorder
}

func NewDispatcher(logger *slog.Logger, link core.Link) *Dispatcher {
	return &Dispatcher{logger: logger, link: link}
}

// WithOutgoingRecorder wires the SMS engine's optimistic insert hook.
func (d *Dispatcher) WithOutgoingRecorder(rec OutgoingRecorder) *Dispatcher {
	d.outgoing = rec

	return d
}

func (d *Dispatcher) Pair(deviceID string) {
	d.dispatch("pair", deviceID, d.link.Pair(deviceID))
}

func (d *Dispatcher) Unpair(deviceID string) {
	d.dispatch("unpair", deviceID, d.link.Unpair(deviceID))
}

func (d *Dispatcher) Ping(deviceID, message string) {
	d.dispatch("ping", deviceID, d.link.Ping(deviceID, message))
}

// RingDevice is a ping with a distinct payload.
func (d *Dispatcher) RingDevice(deviceID string) {
	d.dispatch("ring", deviceID, d.link.Ping(deviceID, ringPayload))
}

func (d *Dispatcher) SendFiles(deviceID string, paths []string) {
	d.dispatch("send_files", deviceID, d.link.SendFiles(deviceID, paths))
}

func (d *Dispatcher) SendClipboard(deviceID, content string) {
	d.dispatch("send_clipboard", deviceID, d.link.SendClipboard(deviceID, content))
}

func (d *Dispatcher) RequestConversations(deviceID string) {
	d.dispatch("request_conversations", deviceID, d.link.RequestConversations(deviceID))
}

func (d *Dispatcher) RequestConversation(deviceID string, threadID int64) {
	d.dispatch("request_conversation", deviceID, d.link.RequestConversation(deviceID, threadID))
}

func (d *Dispatcher) SendSms(deviceID, phoneNumber, message string) {
	if d.outgoing != nil {
		d.outgoing.RecordOutgoing(phoneNumber, message)
	}
	d.dispatch("send_sms", deviceID, d.link.SendSms(deviceID, phoneNumber, message))
}

func (d *Dispatcher) StartSftpBrowsing(deviceID string) {
	d.dispatch("start_sftp_browsing", deviceID, d.link.StartSftpBrowsing(deviceID))
}

func (d *Dispatcher) ExecuteCommand(deviceID, commandKey string) {
	d.dispatch("execute_command", deviceID, d.link.ExecuteCommand(deviceID, commandKey))
}

func (d *Dispatcher) dispatch(action, deviceID string, err error) {
	if err != nil {
		d.logger.Warn("command failed", "action", action, "device_id", deviceID, "error", err)

		return
	}
	d.logger.Debug("command sent", "action", action, "device_id", deviceID)
}
