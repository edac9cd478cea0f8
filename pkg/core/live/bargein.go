package live

import "sync"

// BargeInDetector decides when user speech should interrupt model playback.
// A barge-in fires only after ConsecutiveFrames frames in a row exceed the
// energy threshold, so a single noise spike does not cut off the model.
// Safe for concurrent use.
type BargeInDetector struct {
	config BargeInConfig

	mu     sync.Mutex
	streak int
}

// NewBargeInDetector creates a detector with the given config.
// Zero-value fields fall back to DefaultBargeInConfig.
func NewBargeInDetector(config BargeInConfig) *BargeInDetector {
	def := DefaultBargeInConfig()
	if config.EnergyThreshold <= 0 {
		config.EnergyThreshold = def.EnergyThreshold
	}
	if config.ConsecutiveFrames <= 0 {
		config.ConsecutiveFrames = def.ConsecutiveFrames
	}
	return &BargeInDetector{config: config}
}

// Process feeds one frame's RMS energy to the detector and reports whether
// a barge-in fired on this frame. A frame below the threshold resets the
// streak.
func (d *BargeInDetector) Process(rms float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rms < d.config.EnergyThreshold {
		d.streak = 0
		return false
	}

	d.streak++
	if d.streak >= d.config.ConsecutiveFrames {
		d.streak = 0
		return true
	}
	return false
}

// Reset clears the streak counter. Called when playback starts so stale
// frames from the previous turn cannot trigger an immediate interrupt.
func (d *BargeInDetector) Reset() {
	d.mu.Lock()
	d.streak = 0
	d.mu.Unlock()
}
