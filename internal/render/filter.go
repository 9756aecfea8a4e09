package render

import (
	"fmt"
	"math"

	"reelsmith/internal/spec"
)

// zoom/pan headroom: the still is upscaled slightly so motion never exposes
// the frame edge.
const motionHeadroom = 1.15

// MotionFilter builds the -vf graph that animates a still image into a
// constant-frame-rate clip at the output resolution.
func MotionFilter(motion spec.Motion, duration float64, outW, outH, fps int) string {
	if !spec.ValidMotion(motion) {
		motion = spec.DefaultMotion
	}

	frames := int(math.Round(duration * float64(fps)))
	if frames < 1 {
		frames = 1
	}
	scaleW := int(float64(outW) * motionHeadroom)
	scaleH := int(float64(outH) * motionHeadroom)

	base := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,", scaleW, scaleH, scaleW, scaleH)

	switch motion {
	case spec.MotionStatic:
		return fmt.Sprintf("%sscale=%d:%d,fps=%d,format=yuv420p", base, outW, outH, fps)
	case spec.MotionPanLeft:
		return fmt.Sprintf(
			"%szoompan=z='1.03':x='max(0,(iw-iw/zoom)*(1-on/%d))':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d,fps=%d,format=yuv420p",
			base, frames, frames, outW, outH, fps, fps)
	case spec.MotionPanRight:
		return fmt.Sprintf(
			"%szoompan=z='1.03':x='max(0,(iw-iw/zoom)*(on/%d))':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d,fps=%d,format=yuv420p",
			base, frames, frames, outW, outH, fps, fps)
	default: // slow_zoom
		return fmt.Sprintf(
			"%szoompan=z='min(1.08,1.0+0.08*on/%d)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d,fps=%d,format=yuv420p",
			base, frames, frames, outW, outH, fps, fps)
	}
}

// xfadeOffsets computes the running xfade offset for each of the n-1 fades
// between n clips. Each fade starts crossfade seconds before the end of the
// accumulated timeline.
func xfadeOffsets(durations []float64, crossfade float64) []float64 {
	n := len(durations)
	if n < 2 {
		return nil
	}
	offsets := make([]float64, 0, n-1)
	offsets = append(offsets, math.Max(0, durations[0]-crossfade))

	timeline := durations[0]
	for i := 2; i < n; i++ {
		timeline += durations[i-1] - crossfade
		offsets = append(offsets, math.Max(0, timeline-crossfade))
	}
	return offsets
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*1000)/1000)
}
