package turn

import (
	"regexp"
	"strings"
)

// Artifact is a runnable code block lifted out of a finalized reply, ready
// to hand to a preview surface.
type Artifact struct {
	Code     string
	Language string
}

var fencedCodeRE = regexp.MustCompile("(?is)```(html|css|javascript|js)\\n(.*?)```")

// ExtractArtifact scans message text for fenced html, css, and javascript
// blocks. HTML wins: when present, loose css and js blocks are folded into
// the document so the result renders standalone. Without html, the first
// block is returned as-is. Fences in other languages are not preview
// material and report no artifact.
func ExtractArtifact(text string) (Artifact, bool) {
	matches := fencedCodeRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Artifact{}, false
	}

	var htmlCode, cssCode, jsCode string
	for _, m := range matches {
		code := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "html":
			htmlCode = code
		case "css":
			cssCode += code + "\n"
		case "javascript", "js":
			jsCode += code + "\n"
		}
	}

	if htmlCode != "" {
		if cssCode != "" && !strings.Contains(htmlCode, "<style>") {
			if strings.Contains(htmlCode, "</head>") {
				htmlCode = strings.Replace(htmlCode, "</head>", "<style>"+cssCode+"</style></head>", 1)
			} else {
				htmlCode = "<style>" + cssCode + "</style>" + htmlCode
			}
		}
		if jsCode != "" && !strings.Contains(htmlCode, "<script>") {
			if strings.Contains(htmlCode, "</body>") {
				htmlCode = strings.Replace(htmlCode, "</body>", "<script>"+jsCode+"</script></body>", 1)
			} else {
				htmlCode = htmlCode + "<script>" + jsCode + "</script>"
			}
		}
		return Artifact{Code: htmlCode, Language: "html"}, true
	}

	lang := strings.ToLower(matches[0][1])
	if lang == "js" {
		lang = "javascript"
	}
	return Artifact{Code: strings.TrimSpace(matches[0][2]), Language: lang}, true
}
