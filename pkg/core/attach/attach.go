// Package attach filters attachment MIME types and shrinks oversized images
// before they go on the wire.
package attach

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/neochat-ai/neochat/pkg/core/types"
)

// supportedPrefixes are the MIME families the model accepts inline.
var supportedPrefixes = []string{
	"image/", "audio/", "video/", "text/",
	"application/pdf", "application/json", "application/xml",
}

// officeMarkers identify Office formats the model rejects even though they
// match an accepted prefix.
var officeMarkers = []string{
	"wordprocessingml", "spreadsheetml", "presentationml",
	"msword", "excel", "powerpoint",
}

// Supported reports whether an attachment of this MIME type can be sent.
func Supported(mimeType string) bool {
	ok := false
	for _, p := range supportedPrefixes {
		if strings.HasPrefix(mimeType, p) {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	for _, m := range officeMarkers {
		if strings.Contains(mimeType, m) {
			return false
		}
	}
	return true
}

// Filter drops unsupported and empty attachments.
func Filter(atts []types.Attachment) []types.Attachment {
	var out []types.Attachment
	for _, a := range atts {
		if len(a.Data) == 0 || !Supported(a.MIMEType) {
			continue
		}
		out = append(out, a)
	}
	return out
}

const (
	// CompressThreshold is the size above which images get re-encoded.
	CompressThreshold = 100_000

	// maxWidth bounds the longer image dimension after compression.
	maxWidth = 1024

	jpegQuality = 80
)

// CompressImage re-encodes an oversized image as JPEG, downscaling to
// maxWidth when wider. Small images and non-images pass through untouched;
// so do images that fail to decode, since the model may still accept them.
func CompressImage(a types.Attachment) types.Attachment {
	if !a.IsImage() || len(a.Data) <= CompressThreshold {
		return a
	}

	img, _, err := image.Decode(bytes.NewReader(a.Data))
	if err != nil {
		return a
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return a
	}

	out := a
	out.MIMEType = "image/jpeg"
	out.Data = buf.Bytes()
	if !strings.HasSuffix(out.Name, ".jpg") && !strings.HasSuffix(out.Name, ".jpeg") {
		out.Name = fmt.Sprintf("%s.jpg", strings.TrimSuffix(a.Name, extOf(a.Name)))
	}
	return out
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// Prepare filters and compresses a message's attachments in one pass.
func Prepare(atts []types.Attachment) []types.Attachment {
	filtered := Filter(atts)
	for i, a := range filtered {
		filtered[i] = CompressImage(a)
	}
	return filtered
}
