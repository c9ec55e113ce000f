package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectgo/internal/app"
	"connectgo/internal/bus"
	"connectgo/internal/commands"
	"connectgo/internal/config"
	"connectgo/internal/core"
	"connectgo/internal/domain"
	"connectgo/internal/logging"
	"connectgo/internal/notifications"
	"connectgo/internal/persistence"
	"connectgo/internal/relay"
	"connectgo/internal/sms"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run connectd", "error", err)
		os.Exit(1)
	}
}

func run() error {
	demo := flag.Bool("demo", false, "feed scripted events through the loopback link")
	listenFor := flag.Duration("listen-for", 0, "exit after this duration, e.g. 30s (0 = until signal)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := app.ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		if closeErr := logMgr.Close(); closeErr != nil {
			slog.Warn("close log manager", "error", closeErr)
		}
	}()
	logger := logMgr.Logger("connectd")
	logger.Info("starting connectd", "config", paths.ConfigFile)

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("close sqlite", "error", closeErr)
		}
	}()

	convRepo := persistence.NewConversationRepo(db)
	msgRepo := persistence.NewMessageRepo(db)
	contactRepo := persistence.NewContactRepo(db)
	writer := persistence.NewWriterQueue(logMgr.Logger("persistence"), 256)
	writer.Start(ctx)

	deviceStore := domain.NewDeviceStore()
	smsStore := domain.NewSmsStore()
	if err := domain.LoadSmsStoreFromRepositories(ctx, smsStore, convRepo, msgRepo, contactRepo); err != nil {
		return fmt.Errorf("warm sms store: %w", err)
	}

	messageBus := bus.New(logMgr.Logger("bus"))
	defer messageBus.Close()

	// The wire-level protocol engine is an external collaborator; connectd
	// drives the stack over the in-memory loopback link.
	link := core.NewPipe(64)

	eventRelay := relay.New(logMgr.Logger("relay"), messageBus, link, deviceStore)
	eventRelay.Start(ctx)

	engine := sms.NewEngine(logMgr.Logger("sms"), messageBus, smsStore).
		WithPersistence(writer, convRepo, msgRepo, contactRepo)
	engine.Start(ctx)

	dispatcher := commands.NewDispatcher(logMgr.Logger("commands"), link).
		WithOutgoingRecorder(engine)

	sender := notifications.NewBeeepSender(app.Name, logMgr.Logger("notifications"))
	notifier := app.NewNotificationService(messageBus, smsStore, func() config.AppConfig { return cfg }, sender, logMgr.Logger("app.notifications"))
	notifier.Start(ctx)

	go watchState(ctx, logger, messageBus, deviceStore, smsStore)

	if *demo {
		go runDemo(logger, link, dispatcher)
	}

	if *listenFor > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(*listenFor):
		}

		return nil
	}

	<-ctx.Done()

	return nil
}

// watchState logs consolidated snapshots whenever a change notification
// lands, standing in for UI clients re-reading the caches.
func watchState(ctx context.Context, logger *slog.Logger, b bus.MessageBus, devices *domain.DeviceStore, smsStore *domain.SmsStore) {
	devSub := b.Subscribe(core.TopicDevicesChanged)
	smsSub := b.Subscribe(core.TopicSmsEvent)
	defer b.Unsubscribe(devSub, core.TopicDevicesChanged)
	defer b.Unsubscribe(smsSub, core.TopicSmsEvent)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-devSub:
			if !ok {
				return
			}
			logger.Info("devices snapshot", "count", len(devices.All()))
		case raw, ok := <-smsSub:
			if !ok {
				return
			}
			switch ev := raw.(type) {
			case sms.MessageReceived:
				logger.Info("message", "thread_id", ev.Message.ThreadID, "direction", int(ev.Message.Direction))
			case sms.ConversationsReceived:
				logger.Info("conversations snapshot", "count", len(ev.Conversations))
			case sms.Error:
				logger.Warn("sms protocol error", "error", ev.Message)
			}
		}
	}
}

// runDemo scripts a short device lifecycle through the loopback link.
func runDemo(logger *slog.Logger, link *core.Pipe, dispatcher *commands.Dispatcher) {
	logger.Info("demo mode: emitting scripted events")

	link.Emit(core.Connected{
		DeviceID: "demo-device",
		Device: domain.Device{
			Name:      "Pixel",
			Type:      "phone",
			PairState: domain.PairStateNotPaired,
			Capabilities: domain.Capabilities{
				Ping: true, Share: true, SMS: true, Clipboard: true, FindMyPhone: true,
			},
		},
	})
	link.Emit(core.PairStateChanged{DeviceID: "demo-device", State: domain.PairStateRequested})

	payload, _ := json.Marshal(map[string]any{
		"messages": []map[string]any{
			{
				"id":           1001,
				"thread_id":    7,
				"addresses":    []map[string]string{{"address": "+1-555-123-4567"}},
				"body":         "hello from demo",
				"date":         domain.NowMillis(),
				"message_type": 1,
				"read":         false,
			},
		},
	})
	link.Emit(core.SmsMessages{DeviceID: "demo-device", Payload: payload})

	dispatcher.Ping("demo-device", "ping from connectd")
	dispatcher.SendSms("demo-device", "+1-555-123-4567", "demo reply")
	logger.Info("demo mode: commands dispatched", "recorded", len(link.Commands()))
}
