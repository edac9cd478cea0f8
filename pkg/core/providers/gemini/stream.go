package gemini

import (
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

// stream adapts the SDK's push iterator to a pull iterator and accumulates
// delta text, so every chunk carries the full text so far.
type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	accum  strings.Builder
	closed bool
}

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{next: next, stop: stop}
}

// Next returns the next accumulated chunk, io.EOF at stream end.
func (s *stream) Next() (core.StreamChunk, error) {
	if s.closed {
		return core.StreamChunk{}, io.EOF
	}

	resp, err, ok := s.next()
	if !ok {
		return core.StreamChunk{}, io.EOF
	}
	if err != nil {
		return core.StreamChunk{}, classify(err)
	}

	s.accum.WriteString(resp.Text())
	return core.StreamChunk{
		Text:    s.accum.String(),
		Sources: extractSources(resp),
	}, nil
}

// Close releases the iterator. Safe to call more than once.
func (s *stream) Close() error {
	if !s.closed {
		s.closed = true
		s.stop()
	}
	return nil
}

// extractSources pulls grounding attributions from a response chunk.
// Downstream dedups by URI; chunks may repeat sources freely.
func extractSources(resp *genai.GenerateContentResponse) []types.GroundingSource {
	var sources []types.GroundingSource
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			src, ok := types.NormalizeGroundingSource(chunk.Web.Title, chunk.Web.URI)
			if !ok {
				continue
			}
			sources = append(sources, src)
		}
	}
	return sources
}
