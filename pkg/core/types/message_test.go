package types

import (
	"testing"
	"time"
)

func TestNormalizeGroundingSource(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		uri     string
		want    GroundingSource
		wantOK  bool
	}{
		{"full", "Example", "https://example.com", GroundingSource{"Example", "https://example.com"}, true},
		{"title fallback", "", "https://example.com", GroundingSource{"https://example.com", "https://example.com"}, true},
		{"placeholder uri", "Example", "#", GroundingSource{}, false},
		{"empty uri", "Example", "", GroundingSource{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeGroundingSource(tt.title, tt.uri)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMessage_Clone(t *testing.T) {
	orig := Message{
		ID:               "m1",
		Role:             RoleModel,
		Text:             "hello",
		Timestamp:        time.Now(),
		GroundingSources: []GroundingSource{{Title: "a", URI: "https://a"}},
		Attachments:      []Attachment{{Name: "f.png", MIMEType: "image/png", Data: []byte{1, 2}}},
	}

	clone := orig.Clone()
	clone.GroundingSources[0].Title = "changed"
	clone.Attachments[0].Data[0] = 9

	if orig.GroundingSources[0].Title != "a" {
		t.Error("clone shares grounding sources with original")
	}
	if orig.Attachments[0].Data[0] != 1 {
		t.Error("clone shares attachment data with original")
	}
}

func TestIsDefaultTitle(t *testing.T) {
	for _, title := range append([]string{""}, DefaultTitles...) {
		if !IsDefaultTitle(title) {
			t.Errorf("IsDefaultTitle(%q) = false, want true", title)
		}
	}
	if IsDefaultTitle("Trip planning") {
		t.Error("IsDefaultTitle should be false for a customized title")
	}
}

func TestCreativity_Temperature(t *testing.T) {
	tests := []struct {
		c    Creativity
		want float32
	}{
		{CreativityPrecise, 0.2},
		{CreativityBalanced, 0.7},
		{CreativityCreative, 1.0},
		{Creativity(""), 0.7},
	}
	for _, tt := range tests {
		if got := tt.c.Temperature(); got != tt.want {
			t.Errorf("Temperature(%q) = %v, want %v", tt.c, got, tt.want)
		}
	}
}
