// Package live runs a duplex voice session over a model gateway's live
// connection: mic audio in, synthesized speech out, with energy-based
// barge-in, a strict FIFO playback queue, and turn commits into the session
// store.
//
// The session is an explicit state machine:
//
//	idle -> connecting -> connected -> listening <-> speaking -> idle
//
// with error as a terminal state. Barge-in fires while speaking when the mic
// RMS energy stays above the configured threshold for a run of consecutive
// frames; the current playback stops, the queue drains, and the session is
// back to listening within one audio frame.
package live
