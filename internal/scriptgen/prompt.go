package scriptgen

import "fmt"

const scriptSystemPrompt = `You convert a short-form video idea into a strictly formatted YAML document
for an automated video generation pipeline. Output ONLY valid YAML, no
explanations and no code fences, following this schema:

global:
  aspect_ratio: '9:16'
  title: '<short, catchy video title>'
  description: '<brief video description, 1-2 sentences>'
version: 1
scenes:
  - id: 's1'
    duration: <float seconds>
    text: '<narration line, single line>'
    visual:
      type: 'image'
      prompt: '<image generation prompt, single line>'
      motion: '<slow_zoom|pan_left|pan_right|static>'

Rules:
- Narration is a single monologue, no dialogue.
- Total duration around 60 seconds unless the idea specifies otherwise.
- At least 8 scenes, each 7 seconds or less, durations varied between 3 and 7.
- Scene ids are s1, s2, ... in order with no gaps.
- Visual prompts describe tangible scenes, environments, objects, or people.
  Never abstract concepts. Include setting, lighting, subject, and tone.
- Prompts must produce images with no text and no split screens.
- Motion is mostly slow_zoom with occasional pan_left or pan_right.
- The opening line must hook attention immediately.
- Escape single quotes inside quoted strings by doubling them.`

func buildScriptUserPrompt(idea string) string {
	return fmt.Sprintf("Generate the video document for the following idea:\n%s\n", idea)
}
