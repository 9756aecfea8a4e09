package stage

import (
	"reflect"
	"testing"
)

func TestPipelineOrdering(t *testing.T) {
	stages := Pipeline()
	var names []string
	for _, d := range stages {
		names = append(names, d.Name)
	}
	want := []string{Image, Audio, AudioConcat, Align, Subtitles, Clips, Slideshow, Mux, Final}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("pipeline order = %v", names)
	}

	if Index(Audio) >= Index(AudioConcat) {
		t.Fatal("scene audio must come before the joined track")
	}
	if Index(Subtitles) >= Index(Final) {
		t.Fatal("subtitles must exist before burn-in")
	}
	if Index("no-such-stage") != -1 {
		t.Fatal("unknown stage must report -1")
	}
}

func TestDownstream(t *testing.T) {
	got := Downstream(Slideshow)
	want := []string{Slideshow, Mux, Final}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Downstream(slideshow) = %v", got)
	}
	if Downstream("bogus") != nil {
		t.Fatal("unknown stage must have no downstream")
	}
}

func TestPipelineIsACopy(t *testing.T) {
	p := Pipeline()
	p[0].Name = "tampered"
	if Pipeline()[0].Name != Image {
		t.Fatal("Pipeline returned shared backing storage")
	}
}
