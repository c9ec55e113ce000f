package domain

import (
	"sort"
	"sync"
)

// DeviceStore keeps the latest device snapshots in memory for UI clients.
// The relay is the only writer; readers get point-in-time copies.
type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]Device
	changes chan struct{}
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{
		devices: make(map[string]Device),
		changes: make(chan struct{}, 1),
	}
}

// Upsert replaces the stored record by id. Partial-field merges are the
// caller's job: read, mutate a copy, then upsert.
func (s *DeviceStore) Upsert(device Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[device.ID] = device
	s.notify()
}

func (s *DeviceStore) Remove(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[deviceID]; !ok {
		return
	}
	delete(s.devices, deviceID)
	s.notify()
}

func (s *DeviceStore) Get(deviceID string) (Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	device, ok := s.devices[deviceID]

	return device, ok
}

// All returns a consistent snapshot, sorted by name for stable rendering.
func (s *DeviceStore) All() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Device, 0, len(s.devices))
	for _, device := range s.devices {
		out = append(out, device)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}

		return out[i].Name < out[j].Name
	})

	return out
}

func (s *DeviceStore) Changes() <-chan struct{} {
	return s.changes
}

func (s *DeviceStore) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
