package relay

import (
	"context"
	"log/slog"
	"time"

	"connectgo/internal/bus"
	"connectgo/internal/core"
	"connectgo/internal/domain"
)

const (
	// After a pairing-related event the Core keeps settling battery and
	// capability fields for a while, so refreshes are requested at a tight
	// cadence inside this window.
	pairingBurstWindow  = 10 * time.Second
	pairingBurstCadence = 500 * time.Millisecond

	// Slow correctness backstop independent of event delivery.
	backstopPollInterval = 30 * time.Second
)

// PairingRequest is the de-duplicated notification emitted once per
// transition into the requested pair state.
type PairingRequest struct {
	DeviceID   string
	DeviceName string
	DeviceType string
}

// Relay drains the Core event stream and applies each event to the device
// cache before reading the next one, so cache mutations are linearizable.
// Burst and backstop timers are merged into the same loop instead of racing
// it from separate goroutines.
type Relay struct {
	logger  *slog.Logger
	bus     bus.MessageBus
	link    core.Link
	devices *domain.DeviceStore

	// Timer durations, defaulted from the package constants. Set before
	// Start; tests shrink them.
	burstWindow   time.Duration
	burstCadence  time.Duration
	backstopEvery time.Duration

	// Touched only from the run goroutine.
	lastNotified  map[string]domain.PairState
	lastPairEvent time.Time
}

func New(logger *slog.Logger, b bus.MessageBus, link core.Link, devices *domain.DeviceStore) *Relay {
	return &Relay{
		logger:        logger,
		bus:           b,
		link:          link,
		devices:       devices,
		burstWindow:   pairingBurstWindow,
		burstCadence:  pairingBurstCadence,
		backstopEvery: backstopPollInterval,
		lastNotified:  make(map[string]domain.PairState),
	}
}

func (r *Relay) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Relay) run(ctx context.Context) {
	events := r.link.Events()
	burst := time.NewTicker(r.burstCadence)
	defer burst.Stop()
	backstop := time.NewTicker(r.backstopEvery)
	defer backstop.Stop()

	r.publishConnStatus(core.ConnStateRunning)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				r.logger.Info("core event stream ended")
				r.publishConnStatus(core.ConnStateStopped)

				return
			}
			r.apply(ev)
		case <-burst.C:
			if !r.lastPairEvent.IsZero() && time.Since(r.lastPairEvent) < r.burstWindow {
				r.bus.Publish(core.TopicDevicesChanged, struct{}{})
			}
		case <-backstop.C:
			r.bus.Publish(core.TopicDevicesChanged, struct{}{})
		}
	}
}

func (r *Relay) apply(ev core.Event) {
	switch ev := ev.(type) {
	case core.Connected:
		device := ev.Device
		device.ID = ev.DeviceID
		device.Reachable = true
		r.devices.Upsert(device)
		if device.PairState == domain.PairStateRequested {
			// Connecting with a pending request is itself the transition
			// into the requested state.
			r.notifyPairingRequest(ev.DeviceID, device)
		} else {
			r.lastNotified[ev.DeviceID] = device.PairState
		}
		r.markPairingBurst()
		r.bus.Publish(core.TopicDevicesChanged, struct{}{})
		r.logger.Info("device connected", "device_id", ev.DeviceID, "name", device.Name)
	case core.DevicePaired:
		device := ev.Device
		device.ID = ev.DeviceID
		device.Reachable = true
		device.PairState = domain.PairStatePaired
		r.devices.Upsert(device)
		r.lastNotified[ev.DeviceID] = domain.PairStatePaired
		r.markPairingBurst()
		r.bus.Publish(core.TopicDevicesChanged, struct{}{})
		r.logger.Info("device paired", "device_id", ev.DeviceID, "name", device.Name)
	case core.Disconnected:
		r.devices.Remove(ev.DeviceID)
		delete(r.lastNotified, ev.DeviceID)
		r.bus.Publish(core.TopicDevicesChanged, struct{}{})
		r.logger.Info("device disconnected", "device_id", ev.DeviceID)
	case core.PairStateChanged:
		r.applyPairStateChange(ev)
	case core.ClipboardReceived:
		r.bus.Publish(core.TopicClipboard, ev)
	case core.StateUpdated:
		r.applyStateUpdate(ev)
	case core.Mpris:
		r.bus.Publish(core.TopicMpris, ev)
	case core.SmsMessages:
		r.bus.Publish(core.TopicSmsRaw, ev)
	case core.ContactsReceived:
		r.bus.Publish(core.TopicContactsRaw, ev)
	}
}

// applyPairStateChange emits a pairing-request notification exactly once per
// transition into the requested state. Re-delivered protocol packets keep the
// state unchanged and must not re-notify.
func (r *Relay) applyPairStateChange(ev core.PairStateChanged) {
	if ev.State == domain.PairStateRequested {
		device, ok := r.devices.Get(ev.DeviceID)
		if !ok {
			// A pairing request for an unknown device is a benign
			// event-ordering race, not an error.
			r.logger.Debug("pairing request for unknown device dropped", "device_id", ev.DeviceID)

			return
		}
		r.notifyPairingRequest(ev.DeviceID, device)

		return
	}

	r.lastNotified[ev.DeviceID] = ev.State
	device, ok := r.devices.Get(ev.DeviceID)
	if !ok {
		return
	}
	if device.PairState == ev.State {
		return
	}
	device.PairState = ev.State
	r.devices.Upsert(device)
	r.bus.Publish(core.TopicDevicesChanged, struct{}{})
}

// applyStateUpdate merges optional fields into the cached record; absent
// fields stay untouched. Updates for unknown devices are dropped.
func (r *Relay) applyStateUpdate(ev core.StateUpdated) {
	device, ok := r.devices.Get(ev.DeviceID)
	if !ok {
		return
	}
	if ev.BatteryLevel != nil {
		device.BatteryLevel = ev.BatteryLevel
	}
	if ev.Charging != nil {
		device.Charging = ev.Charging
	}
	if ev.SignalStrength != nil {
		device.SignalStrength = ev.SignalStrength
	}
	if ev.NetworkType != "" {
		device.NetworkType = ev.NetworkType
	}
	r.devices.Upsert(device)
	r.bus.Publish(core.TopicDevicesChanged, struct{}{})
}

// notifyPairingRequest publishes the notification unless the requested state
// was already notified and never left since.
func (r *Relay) notifyPairingRequest(deviceID string, device domain.Device) {
	if r.lastNotified[deviceID] == domain.PairStateRequested {
		return
	}
	r.lastNotified[deviceID] = domain.PairStateRequested
	r.bus.Publish(core.TopicPairingRequest, PairingRequest{
		DeviceID:   deviceID,
		DeviceName: device.Name,
		DeviceType: device.Type,
	})
	r.logger.Info("pairing requested", "device_id", deviceID, "name", device.Name)
}

func (r *Relay) markPairingBurst() {
	r.lastPairEvent = time.Now()
}

func (r *Relay) publishConnStatus(state core.ConnState) {
	r.bus.Publish(core.TopicConnStatus, core.ConnStatus{State: state, Timestamp: time.Now()})
}
