package domain

import "testing"

func TestDeviceStore_UpsertReplacesWholeRecord(t *testing.T) {
	store := NewDeviceStore()

	level := 80
	store.Upsert(Device{ID: "dev1", Name: "Pixel", PairState: PairStatePaired, BatteryLevel: &level})
	store.Upsert(Device{ID: "dev1", Name: "Pixel", PairState: PairStatePaired})

	device, ok := store.Get("dev1")
	if !ok {
		t.Fatal("expected device to exist")
	}
	if device.BatteryLevel != nil {
		t.Fatalf("expected battery level to be wiped by full overwrite, got %d", *device.BatteryLevel)
	}
}

func TestDeviceStore_ConnectDisconnectSequence(t *testing.T) {
	store := NewDeviceStore()

	store.Upsert(Device{ID: "dev1", Name: "Pixel", PairState: PairStatePaired, Reachable: true})

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("expected one device, got %d", len(all))
	}
	if all[0].Name != "Pixel" || all[0].PairState != PairStatePaired {
		t.Fatalf("unexpected device snapshot: %+v", all[0])
	}

	store.Remove("dev1")
	if got := store.All(); len(got) != 0 {
		t.Fatalf("expected empty cache after disconnect, got %d devices", len(got))
	}
}

func TestDeviceStore_RemoveUnknownIsNoop(t *testing.T) {
	store := NewDeviceStore()
	store.Remove("ghost")

	select {
	case <-store.Changes():
		t.Fatal("expected no change signal for unknown removal")
	default:
	}
}

func TestDeviceStore_AllSortedByName(t *testing.T) {
	store := NewDeviceStore()
	store.Upsert(Device{ID: "b", Name: "Tablet"})
	store.Upsert(Device{ID: "a", Name: "Phone"})

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("expected two devices, got %d", len(all))
	}
	if all[0].Name != "Phone" || all[1].Name != "Tablet" {
		t.Fatalf("expected name order Phone, Tablet; got %s, %s", all[0].Name, all[1].Name)
	}
}

func TestDeviceStore_ChangesCoalesce(t *testing.T) {
	store := NewDeviceStore()
	store.Upsert(Device{ID: "a", Name: "Phone"})
	store.Upsert(Device{ID: "b", Name: "Tablet"})

	select {
	case <-store.Changes():
	default:
		t.Fatal("expected a pending change signal")
	}
	select {
	case <-store.Changes():
		t.Fatal("expected change signals to coalesce into one")
	default:
	}
}
