package subtitles

import (
	"fmt"
	"math"
	"strings"

	"reelsmith/internal/align"
)

// Style carries the ASS styling and line-chunking knobs.
type Style struct {
	PlayResX          int
	PlayResY          int
	FontName          string
	FontSize          int
	MarginV           int
	Outline           int
	Shadow            int
	MaxWordsPerLine   int
	MaxLineSeconds    float64
	MaxWordGapSeconds float64
}

const (
	primaryColour   = "&H00FFFFFF" // white for the highlighted word
	secondaryColour = "&H00999999" // grey before the karaoke sweep
	outlineColour   = "&H00000000"
	backColour      = "&H00000000"
	alignment       = 2 // bottom-center
	// small tail so the last word's highlight doesn't cut off abruptly
	linePaddingSeconds = 0.05
)

// ChunkWords groups aligned words into subtitle lines. A line breaks when it
// would exceed the word budget, run longer than the duration cap, or bridge a
// silence gap wider than the configured threshold.
func ChunkWords(words []align.Word, style Style) [][]align.Word {
	if len(words) == 0 {
		return nil
	}

	var lines [][]align.Word
	current := []align.Word{words[0]}

	for _, w := range words[1:] {
		prev := current[len(current)-1]
		gap := w.Start - prev.End
		durationIfAdded := w.End - current[0].Start

		tooManyWords := len(current) >= style.MaxWordsPerLine
		tooLong := durationIfAdded > style.MaxLineSeconds
		tooBigGap := gap > style.MaxWordGapSeconds

		if tooManyWords || tooLong || tooBigGap {
			lines = append(lines, current)
			current = []align.Word{w}
		} else {
			current = append(current, w)
		}
	}
	return append(lines, current)
}

// RenderASS emits the complete ASS script with one karaoke dialogue event per
// chunked line. Word highlight durations use \k tags in centiseconds.
func RenderASS(words []align.Word, style Style) string {
	var b strings.Builder

	fmt.Fprintf(&b, `[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,%s,%d,%s,%s,%s,%s,0,0,0,0,100,100,0,0,1,%d,%d,%d,120,120,%d,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`,
		style.PlayResX, style.PlayResY,
		style.FontName, style.FontSize,
		primaryColour, secondaryColour, outlineColour, backColour,
		style.Outline, style.Shadow, alignment, style.MarginV)

	for _, line := range ChunkWords(words, style) {
		start := line[0].Start
		end := line[len(line)-1].End + linePaddingSeconds
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(start), formatASSTime(end), karaokeText(line))
	}
	return b.String()
}

// karaokeText renders one line as \k-tagged words, durations in centiseconds.
func karaokeText(line []align.Word) string {
	parts := make([]string, 0, len(line))
	for _, w := range line {
		cs := int(math.Round((w.End - w.Start) * 100))
		if cs < 1 {
			cs = 1
		}
		parts = append(parts, fmt.Sprintf(`{\k%d}%s`, cs, w.Text))
	}
	return strings.Join(parts, " ")
}

// formatASSTime renders seconds as the ASS H:MM:SS.cs timestamp.
func formatASSTime(t float64) string {
	if t < 0 {
		t = 0
	}
	h := int(t) / 3600
	m := (int(t) % 3600) / 60
	s := int(t) % 60
	cs := int(math.Round((t - math.Floor(t)) * 100))
	if cs >= 100 {
		cs -= 100
		s++
		if s >= 60 {
			s -= 60
			m++
			if m >= 60 {
				m -= 60
				h++
			}
		}
	}
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}
