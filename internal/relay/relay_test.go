package relay

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"connectgo/internal/bus"
	"connectgo/internal/core"
	"connectgo/internal/domain"
)

// marker is published after the scenario under test so subscribers can read
// deterministically: the bus preserves per-topic ordering, so everything the
// scenario produced arrives before the marker.
const marker = "end-of-scenario"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(t *testing.T) (*Relay, *core.Pipe, *bus.PubSubBus, *domain.DeviceStore) {
	t.Helper()
	b := bus.New(testLogger())
	t.Cleanup(b.Close)
	pipe := core.NewPipe(16)
	devices := domain.NewDeviceStore()

	return New(testLogger(), b, pipe, devices), pipe, b, devices
}

func recv(t *testing.T, sub bus.Subscription) any {
	t.Helper()
	select {
	case msg := <-sub:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bus message")

		return nil
	}
}

// drainUntilMarker collects everything published before the marker.
func drainUntilMarker(t *testing.T, sub bus.Subscription) []any {
	t.Helper()
	var msgs []any
	for {
		msg := recv(t, sub)
		if msg == marker {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestRelay_ConnectedThenDisconnected(t *testing.T) {
	r, _, _, devices := newTestRelay(t)

	r.apply(core.Connected{
		DeviceID: "dev1",
		Device:   domain.Device{Name: "Pixel", Type: "phone", PairState: domain.PairStatePaired},
	})

	all := devices.All()
	if len(all) != 1 {
		t.Fatalf("expected one device, got %d", len(all))
	}
	if all[0].ID != "dev1" || all[0].Name != "Pixel" || all[0].PairState != domain.PairStatePaired {
		t.Fatalf("unexpected device record: %+v", all[0])
	}
	if !all[0].Reachable {
		t.Fatal("expected connected device to be reachable")
	}

	r.apply(core.Disconnected{DeviceID: "dev1"})
	if got := devices.All(); len(got) != 0 {
		t.Fatalf("expected empty cache after disconnect, got %d", len(got))
	}
}

func TestRelay_DevicePairedForcesPairedState(t *testing.T) {
	r, _, _, devices := newTestRelay(t)

	r.apply(core.DevicePaired{
		DeviceID: "dev1",
		Device:   domain.Device{Name: "Pixel", PairState: domain.PairStateRequested},
	})

	device, ok := devices.Get("dev1")
	if !ok {
		t.Fatal("expected device in cache")
	}
	if device.PairState != domain.PairStatePaired {
		t.Fatalf("expected paired state, got %v", device.PairState)
	}
}

func TestRelay_PairingRequestNotifiedOncePerTransition(t *testing.T) {
	r, _, b, _ := newTestRelay(t)
	sub := b.Subscribe(core.TopicPairingRequest)
	defer b.Unsubscribe(sub, core.TopicPairingRequest)

	r.apply(core.Connected{DeviceID: "dev1", Device: domain.Device{Name: "Pixel", Type: "phone"}})
	r.apply(core.PairStateChanged{DeviceID: "dev1", State: domain.PairStateRequested})
	// Re-delivered protocol packet keeps the state; must not re-notify.
	r.apply(core.PairStateChanged{DeviceID: "dev1", State: domain.PairStateRequested})
	b.Publish(core.TopicPairingRequest, marker)

	msgs := drainUntilMarker(t, sub)
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one pairing request, got %d", len(msgs))
	}
	req, ok := msgs[0].(PairingRequest)
	if !ok {
		t.Fatalf("unexpected payload type %T", msgs[0])
	}
	if req.DeviceID != "dev1" || req.DeviceName != "Pixel" || req.DeviceType != "phone" {
		t.Fatalf("unexpected pairing request: %+v", req)
	}
}

func TestRelay_PairingRequestRenotifiesAfterStateLeftRequested(t *testing.T) {
	r, _, b, _ := newTestRelay(t)
	sub := b.Subscribe(core.TopicPairingRequest)
	defer b.Unsubscribe(sub, core.TopicPairingRequest)

	r.apply(core.Connected{DeviceID: "dev1", Device: domain.Device{Name: "Pixel"}})
	r.apply(core.PairStateChanged{DeviceID: "dev1", State: domain.PairStateRequested})
	r.apply(core.PairStateChanged{DeviceID: "dev1", State: domain.PairStateNotPaired})
	r.apply(core.PairStateChanged{DeviceID: "dev1", State: domain.PairStateRequested})
	b.Publish(core.TopicPairingRequest, marker)

	msgs := drainUntilMarker(t, sub)
	if len(msgs) != 2 {
		t.Fatalf("expected two notifications across distinct transitions, got %d", len(msgs))
	}
}

func TestRelay_ConnectAlreadyRequestedNotifies(t *testing.T) {
	r, _, b, _ := newTestRelay(t)
	sub := b.Subscribe(core.TopicPairingRequest)
	defer b.Unsubscribe(sub, core.TopicPairingRequest)

	// A device can connect with the request already pending; that connect is
	// the transition.
	r.apply(core.Connected{DeviceID: "dev1", Device: domain.Device{Name: "Pixel", Type: "phone", PairState: domain.PairStateRequested}})
	r.apply(core.PairStateChanged{DeviceID: "dev1", State: domain.PairStateRequested})
	b.Publish(core.TopicPairingRequest, marker)

	msgs := drainUntilMarker(t, sub)
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one pairing request, got %d", len(msgs))
	}
	if req := msgs[0].(PairingRequest); req.DeviceID != "dev1" {
		t.Fatalf("unexpected pairing request: %+v", req)
	}
}

func TestRelay_PairingRequestForUnknownDeviceDropped(t *testing.T) {
	r, _, b, _ := newTestRelay(t)
	sub := b.Subscribe(core.TopicPairingRequest)
	defer b.Unsubscribe(sub, core.TopicPairingRequest)

	r.apply(core.PairStateChanged{DeviceID: "ghost", State: domain.PairStateRequested})
	b.Publish(core.TopicPairingRequest, marker)

	if msgs := drainUntilMarker(t, sub); len(msgs) != 0 {
		t.Fatalf("expected notification for unknown device to be dropped, got %d", len(msgs))
	}
}

func TestRelay_StateUpdateMergesOptionalFields(t *testing.T) {
	r, _, _, devices := newTestRelay(t)

	r.apply(core.Connected{DeviceID: "dev1", Device: domain.Device{Name: "Pixel"}})

	level := 73
	charging := true
	r.apply(core.StateUpdated{DeviceID: "dev1", BatteryLevel: &level, Charging: &charging, NetworkType: "5G"})

	device, _ := devices.Get("dev1")
	if device.BatteryLevel == nil || *device.BatteryLevel != 73 {
		t.Fatalf("expected battery level 73, got %+v", device.BatteryLevel)
	}
	if device.Charging == nil || !*device.Charging {
		t.Fatal("expected charging flag set")
	}
	if device.NetworkType != "5G" {
		t.Fatalf("expected network type 5G, got %q", device.NetworkType)
	}
	if device.Name != "Pixel" {
		t.Fatalf("expected name untouched, got %q", device.Name)
	}

	// Absent fields stay as they are.
	signal := 3
	r.apply(core.StateUpdated{DeviceID: "dev1", SignalStrength: &signal})
	device, _ = devices.Get("dev1")
	if device.BatteryLevel == nil || *device.BatteryLevel != 73 {
		t.Fatal("expected battery level to survive a sparse update")
	}
	if device.SignalStrength == nil || *device.SignalStrength != 3 {
		t.Fatal("expected signal strength to be merged")
	}
}

func TestRelay_StateUpdateForUnknownDeviceIsNoop(t *testing.T) {
	r, _, _, devices := newTestRelay(t)

	level := 50
	r.apply(core.StateUpdated{DeviceID: "ghost", BatteryLevel: &level})

	if got := devices.All(); len(got) != 0 {
		t.Fatalf("expected cache to stay empty, got %d", len(got))
	}
}

func TestRelay_PassThroughEvents(t *testing.T) {
	r, _, b, _ := newTestRelay(t)
	clipSub := b.Subscribe(core.TopicClipboard)
	smsSub := b.Subscribe(core.TopicSmsRaw)
	defer b.Unsubscribe(clipSub, core.TopicClipboard)
	defer b.Unsubscribe(smsSub, core.TopicSmsRaw)

	r.apply(core.ClipboardReceived{DeviceID: "dev1", Content: "copied"})
	r.apply(core.SmsMessages{DeviceID: "dev1", Payload: []byte(`{"messages":[]}`)})

	if ev := recv(t, clipSub).(core.ClipboardReceived); ev.Content != "copied" {
		t.Fatalf("unexpected clipboard content %q", ev.Content)
	}
	if ev := recv(t, smsSub).(core.SmsMessages); ev.DeviceID != "dev1" {
		t.Fatalf("unexpected sms event device %q", ev.DeviceID)
	}
}

func TestRelay_BurstTicksOnlyInsideWindow(t *testing.T) {
	r, pipe, b, _ := newTestRelay(t)
	r.burstCadence = 5 * time.Millisecond
	r.burstWindow = 60 * time.Millisecond
	r.backstopEvery = time.Hour
	sub := b.Subscribe(core.TopicDevicesChanged)
	defer b.Unsubscribe(sub, core.TopicDevicesChanged)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	pipe.Emit(core.Connected{DeviceID: "dev1", Device: domain.Device{Name: "Pixel"}})

	// The connect publish plus at least one burst tick inside the window.
	recv(t, sub)
	recv(t, sub)

	// Let the window lapse, then drain whatever is still in flight.
	time.Sleep(3 * r.burstWindow)
	for {
		select {
		case <-sub:
			continue
		case <-time.After(5 * r.burstCadence):
		}

		break
	}

	select {
	case <-sub:
		t.Fatal("expected no burst ticks outside the window")
	case <-time.After(10 * r.burstCadence):
	}
}

func TestRelay_BackstopFiresWithoutEvents(t *testing.T) {
	r, _, b, _ := newTestRelay(t)
	r.backstopEvery = 10 * time.Millisecond
	sub := b.Subscribe(core.TopicDevicesChanged)
	defer b.Unsubscribe(sub, core.TopicDevicesChanged)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	// No events, no pairing burst; only the backstop can publish here.
	recv(t, sub)
}

func TestRelay_StopsSilentlyWhenStreamEnds(t *testing.T) {
	r, pipe, b, devices := newTestRelay(t)
	statusSub := b.Subscribe(core.TopicConnStatus)
	defer b.Unsubscribe(statusSub, core.TopicConnStatus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	pipe.Emit(core.Connected{DeviceID: "dev1", Device: domain.Device{Name: "Pixel"}})
	pipe.CloseEvents()

	first := recv(t, statusSub).(core.ConnStatus)
	second := recv(t, statusSub).(core.ConnStatus)
	if first.State != core.ConnStateRunning || second.State != core.ConnStateStopped {
		t.Fatalf("unexpected status sequence %v, %v", first.State, second.State)
	}

	if got := devices.All(); len(got) != 1 {
		t.Fatalf("expected the event before close to be applied, got %d devices", len(got))
	}
}
