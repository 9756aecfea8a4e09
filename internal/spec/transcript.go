package spec

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transcriptFolder strips combining marks so accented narration survives the
// aligner's ASCII-only dictionary (café -> cafe).
var transcriptFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTranscript rewrites narration into aligner-friendly form:
// lowercase, diacritics folded, punctuation dropped (apostrophes kept),
// whitespace collapsed.
func NormalizeTranscript(text string) string {
	folded, _, err := transform.String(transcriptFolder, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	sb.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// SceneWords holds the normalized transcript words of one scene.
type SceneWords struct {
	SceneID string
	Words   []string
}

// TranscriptWords returns the normalized words of every scene in render
// order. The flattened sequence matches Transcript(), which is what word
// timings from the aligner are offset against.
func (d Document) TranscriptWords() []SceneWords {
	out := make([]SceneWords, 0, len(d.Scenes))
	for _, s := range d.Scenes {
		normalized := NormalizeTranscript(s.Text)
		if normalized == "" {
			out = append(out, SceneWords{SceneID: s.ID})
			continue
		}
		out = append(out, SceneWords{SceneID: s.ID, Words: strings.Split(normalized, " ")})
	}
	return out
}

// Transcript joins all scene narration into the single normalized transcript
// handed to the forced aligner.
func (d Document) Transcript() string {
	parts := make([]string, 0, len(d.Scenes))
	for _, sw := range d.TranscriptWords() {
		if len(sw.Words) > 0 {
			parts = append(parts, strings.Join(sw.Words, " "))
		}
	}
	return strings.Join(parts, " ")
}
