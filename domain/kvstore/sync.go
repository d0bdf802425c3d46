package kvstore

import "time"

const (
	minSyncDelayMs = 100
	maxSyncDelayMs = 86400000
)

// syncSettings are the device synchronization settings of a store.
// Synchronization between devices is not performed locally; the settings
// are only validated and recorded.
type syncSettings struct {
	enabled      bool
	localLabels  []string
	remoteLabels []string
	delayMs      int
}

func defaultSyncSettings() syncSettings {
	return syncSettings{delayMs: minSyncDelayMs}
}

// EnableSync turns synchronization on or off.
func (s *Store) EnableSync(enabled bool) (err error) {
	defer s.measure("enable_sync", time.Now(), &err)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	s.syncSettings.enabled = enabled
	return nil
}

// SetSyncRange sets the labels this device synchronizes with.
func (s *Store) SetSyncRange(localLabels []string, remoteLabels []string) (err error) {
	defer s.measure("set_sync_range", time.Now(), &err)

	for _, label := range append(append([]string{}, localLabels...), remoteLabels...) {
		if label == "" {
			return invalidArgument("empty sync label")
		}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	s.syncSettings.localLabels = append([]string{}, localLabels...)
	s.syncSettings.remoteLabels = append([]string{}, remoteLabels...)
	return nil
}

// SetSyncParam sets the allowed synchronization delay, in milliseconds.
func (s *Store) SetSyncParam(allowedDelayMs int) (err error) {
	defer s.measure("set_sync_param", time.Now(), &err)

	if allowedDelayMs < minSyncDelayMs || allowedDelayMs > maxSyncDelayMs {
		return invalidArgument("allowed delay must be between %d and %d ms, got %d",
			minSyncDelayMs, maxSyncDelayMs, allowedDelayMs)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	s.syncSettings.delayMs = allowedDelayMs
	return nil
}

// SyncSettings returns the recorded synchronization settings.
func (s *Store) SyncSettings() (enabled bool, localLabels, remoteLabels []string, allowedDelayMs int) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	settings := s.syncSettings
	return settings.enabled, append([]string{}, settings.localLabels...),
		append([]string{}, settings.remoteLabels...), settings.delayMs
}

// RemoveDeviceData removes the entries synchronized from the device
// deviceID. Entries written through this store belong to its own device,
// which cannot be removed this way. Nothing is synchronized from remote
// devices locally, so for any other device there is nothing to remove.
func (s *Store) RemoveDeviceData(deviceID string) (err error) {
	defer s.measure("remove_device_data", time.Now(), &err)

	if deviceID == "" {
		return invalidArgument("empty device ID")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	if deviceID == s.deviceID {
		return invalidArgument("cannot remove the data of the local device %s", deviceID)
	}
	log.Debugf("No data of device %s in store %s", deviceID, s.id)
	return nil
}
