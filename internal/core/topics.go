package core

// Bus topics connecting the relay and reconciliation engine to listeners.
const (
	TopicDevicesChanged = "devices.changed"
	TopicPairingRequest = "pairing.request"
	TopicClipboard      = "clipboard.received"
	TopicMpris          = "mpris.event"
	TopicSmsRaw         = "sms.raw"
	TopicContactsRaw    = "contacts.raw"
	TopicSmsEvent       = "sms.event"
	TopicConnStatus     = "conn.status"
)
