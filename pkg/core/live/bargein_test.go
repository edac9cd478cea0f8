package live

import "testing"

func TestBargeInDetector(t *testing.T) {
	tests := []struct {
		name   string
		frames []float64
		fireAt int // index of the frame that fires, -1 for never
	}{
		{"silence never fires", []float64{0.001, 0.002, 0.001, 0.003}, -1},
		{"single spike does not fire", []float64{0.001, 0.5, 0.001, 0.001}, -1},
		{"two consecutive loud frames fire", []float64{0.001, 0.02, 0.03}, 2},
		{"quiet frame resets the streak", []float64{0.02, 0.001, 0.02, 0.02}, 3},
		{"exactly at threshold counts", []float64{0.015, 0.015}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewBargeInDetector(DefaultBargeInConfig())
			fired := -1
			for i, rms := range tt.frames {
				if d.Process(rms) {
					fired = i
					break
				}
			}
			if fired != tt.fireAt {
				t.Errorf("fired at frame %d, want %d", fired, tt.fireAt)
			}
		})
	}
}

func TestBargeInDetectorReset(t *testing.T) {
	d := NewBargeInDetector(BargeInConfig{EnergyThreshold: 0.015, ConsecutiveFrames: 2})
	if d.Process(0.5) {
		t.Fatal("fired after one frame")
	}
	d.Reset()
	if d.Process(0.5) {
		t.Error("streak survived Reset")
	}
	if !d.Process(0.5) {
		t.Error("did not fire after two post-reset frames")
	}
}

func TestBargeInDetectorFiresAgainAfterFiring(t *testing.T) {
	d := NewBargeInDetector(BargeInConfig{EnergyThreshold: 0.015, ConsecutiveFrames: 2})
	d.Process(0.5)
	if !d.Process(0.5) {
		t.Fatal("did not fire")
	}
	// Streak resets on fire; needs two more frames to fire again.
	if d.Process(0.5) {
		t.Error("fired on first frame after a fire")
	}
	if !d.Process(0.5) {
		t.Error("did not fire on second frame after a fire")
	}
}
