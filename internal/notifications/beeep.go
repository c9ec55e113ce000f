package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// BeeepSender delivers desktop notifications through the native notification
// daemon. Delivery is best effort; a broken daemon must not take the relay
// down with it.
type BeeepSender struct {
	appName string
	logger  *slog.Logger
}

func NewBeeepSender(appName string, logger *slog.Logger) *BeeepSender {
	beeep.AppName = appName

	return &BeeepSender{appName: appName, logger: logger}
}

func (s *BeeepSender) Send(payload Payload) {
	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" && content == "" {
		return
	}

	if err := beeep.Notify(title, content, ""); err != nil {
		s.logger.Warn("desktop notification failed", "error", err)
	}
}
