package app

import (
	"context"
	"fmt"
	"log/slog"

	"connectgo/internal/bus"
	"connectgo/internal/config"
	"connectgo/internal/core"
	"connectgo/internal/domain"
	"connectgo/internal/notifications"
	"connectgo/internal/relay"
	"connectgo/internal/sms"
)

// NotificationService listens to bus events and raises desktop notifications
// for pairing requests and incoming messages, honoring user preferences.
type NotificationService struct {
	bus           bus.MessageBus
	smsStore      *domain.SmsStore
	currentConfig func() config.AppConfig
	sender        notifications.Sender
	logger        *slog.Logger
}

func NewNotificationService(
	messageBus bus.MessageBus,
	smsStore *domain.SmsStore,
	currentConfig func() config.AppConfig,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		smsStore:      smsStore,
		currentConfig: currentConfig,
		sender:        sender,
		logger:        logger,
	}
}

func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	pairingSub := s.bus.Subscribe(core.TopicPairingRequest)
	smsSub := s.bus.Subscribe(core.TopicSmsEvent)

	go func() {
		defer s.bus.Unsubscribe(pairingSub, core.TopicPairingRequest)
		defer s.bus.Unsubscribe(smsSub, core.TopicSmsEvent)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-pairingSub:
				if !ok {
					return
				}
				req, ok := raw.(relay.PairingRequest)
				if !ok {
					continue
				}
				s.handlePairingRequest(req)
			case raw, ok := <-smsSub:
				if !ok {
					return
				}
				ev, ok := raw.(sms.MessageReceived)
				if !ok {
					continue
				}
				s.handleIncomingMessage(ev.Message)
			}
		}
	}()
}

func (s *NotificationService) handlePairingRequest(req relay.PairingRequest) {
	prefs := s.currentConfig().Notifications
	if !prefs.Enabled || !prefs.Events.PairingRequest {
		return
	}

	s.sender.Send(notifications.Payload{
		Title:   fmt.Sprintf("%s wants to pair", req.DeviceName),
		Content: fmt.Sprintf("Pairing request from %s (%s)", req.DeviceName, req.DeviceType),
	})
	s.logger.Debug("pairing notification sent", "device_id", req.DeviceID)
}

func (s *NotificationService) handleIncomingMessage(msg domain.Message) {
	if msg.Direction != domain.DirectionReceived {
		return
	}
	prefs := s.currentConfig().Notifications
	if !prefs.Enabled || !prefs.Events.IncomingMessage {
		return
	}

	title := msg.Address
	if s.smsStore != nil {
		for _, conv := range s.smsStore.Conversations() {
			if conv.ThreadID == msg.ThreadID && conv.ContactName != "" {
				title = conv.ContactName

				break
			}
		}
	}

	s.sender.Send(notifications.Payload{
		Title:   title,
		Content: msg.Body,
	})
	s.logger.Debug("message notification sent", "thread_id", msg.ThreadID)
}
