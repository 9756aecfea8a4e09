package align

import (
	"encoding/json"
	"fmt"
	"strings"

	"reelsmith/internal/services"
	"reelsmith/internal/spec"
	"reelsmith/internal/stage"
)

// Word is one aligned word interval from the forced aligner.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// alignmentPayload matches the aligner's JSON output shape:
// tiers.words.entries is a list of [start, end, label] triples.
type alignmentPayload struct {
	Tiers struct {
		Words struct {
			Type    string            `json:"type"`
			Entries []json.RawMessage `json:"entries"`
		} `json:"words"`
	} `json:"tiers"`
}

// ParseAlignment decodes word timings from aligner JSON output. Silence and
// unknown-token markers are kept so timing offsets stay in sync; callers that
// map words to narration skip them by label. Word times must be
// non-decreasing.
func ParseAlignment(data []byte) ([]Word, error) {
	var payload alignmentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage.Align, "parse", "decode alignment json", err)
	}

	words := make([]Word, 0, len(payload.Tiers.Words.Entries))
	for _, raw := range payload.Tiers.Words.Entries {
		var entry [3]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		start, okStart := entry[0].(float64)
		end, okEnd := entry[1].(float64)
		label, okLabel := entry[2].(string)
		if !okStart || !okEnd || !okLabel {
			continue
		}
		label = strings.TrimSpace(label)
		words = append(words, Word{Text: label, Start: start, End: end})
	}
	if len(words) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, stage.Align, "parse", "alignment contains no word intervals", nil)
	}

	prev := 0.0
	for i, w := range words {
		if w.Start < prev || w.End < w.Start {
			return nil, services.Wrap(services.ErrExternalTool, stage.Align, "parse",
				fmt.Sprintf("word %d (%q) breaks non-decreasing timing", i, w.Text), nil)
		}
		prev = w.Start
	}
	return words, nil
}

// isMarker reports aligner bookkeeping tokens that carry no narration word.
func isMarker(label string) bool {
	switch strings.ToLower(label) {
	case "", "sp", "sil", "spn", "<unk>", "<eps>":
		return true
	}
	return false
}

// SpokenWords filters out marker tokens, leaving only narration words.
func SpokenWords(words []Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		if !isMarker(w.Text) {
			out = append(out, w)
		}
	}
	return out
}

// MapWordsToScenes assigns aligned words to scenes by narration offset: the
// document's normalized transcript is the word sequence the aligner was given,
// so scene boundaries fall at cumulative word counts. Marker tokens between
// scenes attach to the following scene.
func MapWordsToScenes(doc spec.Document, words []Word) (map[string][]Word, error) {
	spoken := SpokenWords(words)
	perScene := doc.TranscriptWords()

	total := 0
	for _, sw := range perScene {
		total += len(sw.Words)
	}
	if len(spoken) != total {
		return nil, services.Wrap(services.ErrExternalTool, stage.Align, "map",
			fmt.Sprintf("alignment has %d words, transcript has %d", len(spoken), total), nil)
	}

	out := make(map[string][]Word, len(perScene))
	offset := 0
	for _, sw := range perScene {
		n := len(sw.Words)
		out[sw.SceneID] = spoken[offset : offset+n]
		offset += n
	}
	return out, nil
}
