package gemini

import (
	"io"
	"iter"
	"testing"

	"google.golang.org/genai"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func sequence(resps ...*genai.GenerateContentResponse) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, r := range resps {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func TestStreamAccumulatesText(t *testing.T) {
	s := newStream(sequence(
		textResponse("The "),
		textResponse("quick "),
		textResponse("fox."),
	))
	defer s.Close()

	want := []string{"The ", "The quick ", "The quick fox."}
	for i, w := range want {
		chunk, err := s.Next()
		if err != nil {
			t.Fatalf("Next() #%d error = %v", i, err)
		}
		if chunk.Text != w {
			t.Errorf("chunk %d text = %q, want %q", i, chunk.Text, w)
		}
	}

	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

func TestStreamErrorIsClassified(t *testing.T) {
	seq := func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(nil, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"})
	}
	s := newStream(seq)
	defer s.Close()

	_, err := s.Next()
	if err == nil {
		t.Fatal("Next() error = nil, want quota error")
	}
}

func TestStreamCloseStopsIteration(t *testing.T) {
	s := newStream(sequence(textResponse("a"), textResponse("b")))
	if _, err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal("second Close() failed")
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next() after Close = %v, want io.EOF", err)
	}
}
