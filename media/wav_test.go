package media

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeSineWAV encodes a mono 16-bit sine tone and returns its path
func writeSineWAV(t *testing.T, freq float64, sampleRate int, seconds float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	n := int(seconds * float64(sampleRate))
	data := make([]int, n)
	for i := range data {
		v := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		data[i] = int(v * 32767)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestOpenWAVMetadata(t *testing.T) {
	path := writeSineWAV(t, 440, 44100, 0.5)

	src, err := OpenWAV(path, 1024)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", src.SampleRate())
	}
	if src.Bins() != 512 {
		t.Errorf("Bins() = %d, want 512", src.Bins())
	}
	if d := src.Duration(); math.Abs(d-0.5) > 0.01 {
		t.Errorf("Duration() = %v, want ~0.5", d)
	}
	if src.Playing() {
		t.Error("source reports playing before Resume")
	}
	if ct := src.CurrentTime(); ct != 0 {
		t.Errorf("CurrentTime() = %v before Resume, want 0", ct)
	}
}

func TestWAVSourceReadInto(t *testing.T) {
	const sampleRate = 44100
	path := writeSineWAV(t, 440, sampleRate, 0.5)

	src, err := OpenWAV(path, 1024)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	defer src.Close()

	// Position the clock mid-file so a full block is available. 440 Hz
	// falls near bin 440/44100*1024 ~ 10.
	src.started = true
	src.start = time.Now().Add(-250 * time.Millisecond)

	if !src.Playing() {
		t.Fatal("source not playing mid-file")
	}

	frame := make([]float64, src.Bins())
	if err := src.ReadInto(frame); err != nil {
		t.Fatalf("ReadInto: %v", err)
	}

	peakBin, peakDB := 0, math.Inf(-1)
	for i, db := range frame {
		if db > peakDB {
			peakBin, peakDB = i, db
		}
	}
	if peakBin < 9 || peakBin > 11 {
		t.Errorf("peak at bin %d, want near 10", peakBin)
	}
	if peakDB < -15 {
		t.Errorf("peak magnitude %v dB, want a clear tone above -15 dB", peakDB)
	}
	if frame[200] > -40 {
		t.Errorf("bin 200 at %v dB, want well below the tone", frame[200])
	}
}

func TestWAVSourceLifecycle(t *testing.T) {
	path := writeSineWAV(t, 440, 44100, 0.2)

	src, err := OpenWAV(path, 512)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}

	if err := src.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := src.Resume(); err != nil {
		t.Errorf("second Resume: %v", err)
	}

	// Run the clock off the end of the file.
	src.start = time.Now().Add(-time.Second)
	if src.Playing() {
		t.Error("source still playing past end of file")
	}
	if ct := src.CurrentTime(); math.Abs(ct-src.Duration()) > 1e-9 {
		t.Errorf("CurrentTime() = %v past end, want clamped to %v", ct, src.Duration())
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := src.ReadInto(make([]float64, src.Bins())); err == nil {
		t.Error("ReadInto succeeded on a closed source")
	}
	if err := src.Resume(); err == nil {
		t.Error("Resume succeeded on a closed source")
	}
}

func TestOpenWAVRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenWAV(path, 1024); err == nil {
		t.Error("OpenWAV accepted a non-wav file")
	}
}

func TestOpenWAVMissingFile(t *testing.T) {
	if _, err := OpenWAV(filepath.Join(t.TempDir(), "absent.wav"), 1024); err == nil {
		t.Error("OpenWAV accepted a missing file")
	}
}

func TestToMonoFloatDownmix(t *testing.T) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           []int{16384, -16384, 8192, 8192},
		SourceBitDepth: 16,
	}

	mono := toMonoFloat(buf, 16)
	if len(mono) != 2 {
		t.Fatalf("got %d frames, want 2", len(mono))
	}
	// Opposed channels cancel, equal channels average.
	if math.Abs(mono[0]) > 1e-9 {
		t.Errorf("frame 0 = %v, want 0", mono[0])
	}
	if want := 8192.0 / 32768.0; math.Abs(mono[1]-want) > 1e-9 {
		t.Errorf("frame 1 = %v, want %v", mono[1], want)
	}
}

func TestToMonoFloatBitDepthFallback(t *testing.T) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 44100},
		Data:   []int{128},
	}

	// No SourceBitDepth on the buffer: the decoder's depth applies.
	mono := toMonoFloat(buf, 8)
	if want := 1.0; math.Abs(mono[0]-want) > 1e-9 {
		t.Errorf("8-bit fallback: got %v, want %v", mono[0], want)
	}

	// Neither set: 16-bit is assumed.
	mono = toMonoFloat(buf, 0)
	if want := 128.0 / 32768.0; math.Abs(mono[0]-want) > 1e-9 {
		t.Errorf("16-bit default: got %v, want %v", mono[0], want)
	}
}
