package stepbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	intseq "github.com/kallaste/stepbox-go/internal/sequencer"
	inttd "github.com/kallaste/stepbox-go/internal/trackdef"
)

func TestRenderBufferLength(t *testing.T) {
	const rate = 48000
	samples, err := Render("v=8 [synth=do,mi,sol]", 120, rate)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// 16 steps at 125 ms each = 2 s of stereo audio.
	framesPerStep := int(intseq.StepDuration(120).Seconds() * rate)
	want := intseq.MinSequenceLength * framesPerStep * 2
	if len(samples) != want {
		t.Fatalf("buffer length = %d, want %d", len(samples), want)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	defs := "v=8 [piano=do,mi,-,sol+si], v=6 [drums=kick,hihat,snare,hihat], v=7 [guitar=la2,-,-,mi]"
	a, err := Render(defs, 132, 22050)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := Render(defs, 132, 22050)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders diverge at sample %d", i)
		}
	}
}

func TestRenderWithNoTracksReturnsErrNoTracks(t *testing.T) {
	if _, err := Render("nothing parseable here", 120, 22050); !errors.Is(err, ErrNoTracks) {
		t.Fatalf("render err = %v, want ErrNoTracks", err)
	}
	if _, _, err := ExportWAV("nothing parseable here", 120, 22050, "x"); !errors.Is(err, ErrNoTracks) {
		t.Fatalf("export err = %v, want ErrNoTracks", err)
	}
}

func TestRenderRejectsBadArguments(t *testing.T) {
	if _, err := Render("v=8 [synth=do]", 0, 44100); err == nil {
		t.Fatal("expected error for zero bpm")
	}
	if _, err := Render("v=8 [synth=do]", 120, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestRenderProducesSound(t *testing.T) {
	samples, err := Render("v=10 [synth=do]", 120, 22050)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	sounded := false
	for _, s := range samples {
		if s != 0 {
			sounded = true
			break
		}
	}
	if !sounded {
		t.Fatal("expected a non-silent render")
	}
}

func TestExportWAVNaming(t *testing.T) {
	name, data, err := ExportWAV("v=8 [synth=do]", 120, 22050, "demo-song")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "demo-song.wav" {
		t.Fatalf("filename = %q, want demo-song.wav", name)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatal("export should produce a RIFF file")
	}

	name, _, err = ExportWAV("v=8 [synth=do]", 120, 22050, "   ")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "untitled.wav" {
		t.Fatalf("fallback filename = %q, want untitled.wav", name)
	}
}

func TestExportWAVDataSizeMatchesRender(t *testing.T) {
	const rate = 22050
	samples, err := Render("v=8 [synth=do]", 120, rate)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	_, data, err := ExportWAV("v=8 [synth=do]", 120, rate, "x")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	dataSize := binary.LittleEndian.Uint32(data[40:])
	if int(dataSize) != len(samples)*2 {
		t.Fatalf("data chunk = %d bytes, want %d", dataSize, len(samples)*2)
	}
	riffSize := binary.LittleEndian.Uint32(data[4:])
	if riffSize != 36+dataSize {
		t.Fatalf("RIFF length = %d, want %d", riffSize, 36+dataSize)
	}
}

func TestRenderReportsDiagnostics(t *testing.T) {
	var seen []inttd.Diagnostic
	_, err := Render("v=8 [synth=do,xyz]", 120, 22050, WithDiagnostics(func(d inttd.Diagnostic) {
		seen = append(seen, d)
	}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(seen) != 1 || seen[0].Token != "xyz" {
		t.Fatalf("diagnostics = %v, want one for xyz", seen)
	}
}
