package core

import (
	"fmt"
	"strings"
	"sync"
)

// Command is one recorded outbound request, for inspection in tests and the
// loopback debug mode.
type Command struct {
	Name     string
	DeviceID string
	Args     []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return fmt.Sprintf("%s(%s)", c.Name, c.DeviceID)
	}

	return fmt.Sprintf("%s(%s, %s)", c.Name, c.DeviceID, strings.Join(c.Args, ", "))
}

// Pipe is an in-memory Link. Tests and `connectd -demo` inject events with
// Emit and observe the commands the dispatcher produced.
type Pipe struct {
	mu       sync.Mutex
	events   chan Event
	commands []Command
	down     bool
}

func NewPipe(buffer int) *Pipe {
	if buffer <= 0 {
		buffer = 64
	}

	return &Pipe{events: make(chan Event, buffer)}
}

func (p *Pipe) Events() <-chan Event {
	return p.events
}

// Emit feeds one event into the stream.
func (p *Pipe) Emit(ev Event) {
	p.events <- ev
}

// CloseEvents ends the stream; the relay treats this as "no more events".
func (p *Pipe) CloseEvents() {
	close(p.events)
}

// SetDown makes every subsequent command fail with ErrNotConnected.
func (p *Pipe) SetDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

// Commands returns a copy of everything recorded so far.
func (p *Pipe) Commands() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Command, len(p.commands))
	copy(out, p.commands)

	return out
}

func (p *Pipe) record(name, deviceID string, args ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return ErrNotConnected
	}
	p.commands = append(p.commands, Command{Name: name, DeviceID: deviceID, Args: args})

	return nil
}

func (p *Pipe) Pair(deviceID string) error {
	return p.record("pair", deviceID)
}

func (p *Pipe) Unpair(deviceID string) error {
	return p.record("unpair", deviceID)
}

func (p *Pipe) Ping(deviceID, message string) error {
	return p.record("ping", deviceID, message)
}

func (p *Pipe) SendFiles(deviceID string, paths []string) error {
	return p.record("send_files", deviceID, paths...)
}

func (p *Pipe) SendClipboard(deviceID, content string) error {
	return p.record("send_clipboard", deviceID, content)
}

func (p *Pipe) RequestConversations(deviceID string) error {
	return p.record("request_conversations", deviceID)
}

func (p *Pipe) RequestConversation(deviceID string, threadID int64) error {
	return p.record("request_conversation", deviceID, fmt.Sprintf("%d", threadID))
}

func (p *Pipe) SendSms(deviceID, phoneNumber, message string) error {
	return p.record("send_sms", deviceID, phoneNumber, message)
}

func (p *Pipe) StartSftpBrowsing(deviceID string) error {
	return p.record("start_sftp_browsing", deviceID)
}

func (p *Pipe) ExecuteCommand(deviceID, commandKey string) error {
	return p.record("execute_command", deviceID, commandKey)
}
