package live

import (
	"sync"
	"sync/atomic"
)

// AudioSink plays a single PCM chunk to completion. Play blocks until the
// chunk has been played or the stop channel closes, whichever comes first.
type AudioSink interface {
	Play(pcm []byte, stop <-chan struct{}) error
}

// PlaybackQueue plays audio chunks strictly in arrival order. One chunk
// plays at a time; the next starts only after the previous finishes.
type PlaybackQueue struct {
	sink AudioSink

	mu      sync.Mutex
	queue   [][]byte
	playing bool
	stop    chan struct{}
	wake    chan struct{}

	closed atomic.Bool
	done   chan struct{}

	onError func(error)
}

// NewPlaybackQueue starts the playback loop. onError may be nil.
func NewPlaybackQueue(sink AudioSink, onError func(error)) *PlaybackQueue {
	q := &PlaybackQueue{
		sink:    sink,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onError: onError,
	}
	go q.loop()
	return q
}

// Enqueue appends a chunk to the queue. Chunks play in FIFO order.
func (q *PlaybackQueue) Enqueue(pcm []byte) {
	if q.closed.Load() || len(pcm) == 0 {
		return
	}
	buf := make([]byte, len(pcm))
	copy(buf, pcm)

	q.mu.Lock()
	q.queue = append(q.queue, buf)
	q.mu.Unlock()
	q.signal()
}

// Clear drops all queued chunks and stops the chunk currently playing.
func (q *PlaybackQueue) Clear() {
	q.mu.Lock()
	q.queue = nil
	if q.stop != nil {
		close(q.stop)
		q.stop = nil
	}
	q.mu.Unlock()
}

// Idle reports whether the queue is empty and nothing is playing.
func (q *PlaybackQueue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue) == 0 && !q.playing
}

// QueuedChunks returns the number of chunks waiting to play.
func (q *PlaybackQueue) QueuedChunks() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Close stops playback and shuts down the loop. Safe to call more than once.
func (q *PlaybackQueue) Close() {
	if q.closed.Swap(true) {
		return
	}
	q.Clear()
	q.signal()
	<-q.done
}

func (q *PlaybackQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *PlaybackQueue) loop() {
	defer close(q.done)

	for {
		if q.closed.Load() {
			return
		}

		q.mu.Lock()
		if len(q.queue) == 0 {
			q.mu.Unlock()
			<-q.wake
			continue
		}
		chunk := q.queue[0]
		q.queue = q.queue[1:]
		stop := make(chan struct{})
		q.stop = stop
		q.playing = true
		q.mu.Unlock()

		err := q.sink.Play(chunk, stop)

		q.mu.Lock()
		q.playing = false
		if q.stop == stop {
			q.stop = nil
		}
		q.mu.Unlock()

		if err != nil && q.onError != nil {
			q.onError(err)
		}
	}
}
