package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/live"
)

// initAudio sets up microphone input and speaker output.
// Returns a mic reader, a playback sink, and a cleanup function.
func initAudio(inputRate, outputRate int) (*micReader, *otoSink, func(), error) {
	malgoConfig := malgo.ContextConfig{}
	malgoConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	malgoCtx, err := malgo.InitContext(nil, malgoConfig, nil)
	if err != nil {
		return nil, nil, nil, core.NewMediaAcquisitionError("init audio context", err)
	}

	mic, err := newMicReader(malgoCtx.Context, inputRate, 1)
	if err != nil {
		malgoCtx.Uninit()
		return nil, nil, nil, err
	}

	// ~100ms buffer for low latency
	otoOpts := &oto.NewContextOptions{
		SampleRate:   outputRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   outputRate / 10 * 2,
	}
	otoCtx, ready, err := oto.NewContext(otoOpts)
	if err != nil {
		mic.Close()
		malgoCtx.Uninit()
		return nil, nil, nil, core.NewMediaAcquisitionError("init speaker", err)
	}
	<-ready

	sink := newOtoSink(otoCtx)

	cleanup := func() {
		mic.Close()
		sink.Close()
		malgoCtx.Uninit()
	}
	return mic, sink, cleanup, nil
}

// micReader captures audio from the microphone. Captured frames land in
// a bounded buffer so a stalled consumer costs at most a few seconds of
// stale audio, not unbounded memory.
type micReader struct {
	device *malgo.Device
	buf    *live.AudioBuffer
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
}

func newMicReader(ctx malgo.Context, sampleRate, channels int) (*micReader, error) {
	cfg := live.AudioConfig{SampleRate: sampleRate, Channels: channels, BitsPerSample: 16}
	m := &micReader{
		buf: live.NewAudioBuffer(cfg, 5000),
	}
	m.cond = sync.NewCond(&m.mu)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			m.mu.Lock()
			m.buf.Write(pInputSamples)
			m.cond.Signal()
			m.mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(ctx, deviceConfig, callbacks)
	if err != nil {
		return nil, core.NewMediaAcquisitionError("init microphone", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, core.NewMediaAcquisitionError("start microphone", err)
	}
	return m, nil
}

// Read blocks until mic data is available. Returns 0 after Close.
func (m *micReader) Read(p []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.buf.Len() == 0 && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return 0
	}
	return m.buf.Read(p)
}

func (m *micReader) Close() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()

	if m.device != nil {
		m.device.Stop()
		m.device.Uninit()
	}
}

// otoSink plays PCM chunks through the speaker. It satisfies the playback
// queue's sink contract: Play blocks until the chunk drains or stop closes.
type otoSink struct {
	otoCtx *oto.Context

	mu      sync.Mutex
	player  *oto.Player
	buf     []byte
	cond    *sync.Cond
	playing bool
	closed  bool
}

func newOtoSink(ctx *oto.Context) *otoSink {
	s := &otoSink{otoCtx: ctx}
	s.cond = sync.NewCond(&s.mu)
	return s
}

var _ live.AudioSink = (*otoSink)(nil)

func (s *otoSink) Play(pcm []byte, stop <-chan struct{}) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("speaker closed")
	}
	s.buf = append(s.buf, pcm...)
	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
	s.mu.Unlock()
	s.cond.Signal()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			s.flush()
			return nil
		case <-ticker.C:
			s.mu.Lock()
			drained := len(s.buf) == 0
			s.mu.Unlock()
			if drained {
				return nil
			}
		}
	}
}

// Read implements io.Reader for oto.Player, which pulls audio for playback.
// Silence is returned when the buffer is empty so the player keeps running
// between chunks.
func (s *otoSink) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *otoSink) flush() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	s.mu.Unlock()
}

func (s *otoSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.buf = nil
	player := s.player
	s.player = nil
	s.playing = false
	s.mu.Unlock()
	s.cond.Broadcast()

	if player != nil {
		player.Close()
	}
}
