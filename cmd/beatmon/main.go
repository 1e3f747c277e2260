// beatmon runs the beat detector against a WAV file or the default
// microphone and prints every emitted beat.
//
// Usage:
//
//	beatmon [-c config.yaml] track.wav
//	beatmon [-c config.yaml] -mic
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/RyanBlaney/ritmo-radar/beat"
	"github.com/RyanBlaney/ritmo-radar/capture"
	"github.com/RyanBlaney/ritmo-radar/logging"
	"github.com/RyanBlaney/ritmo-radar/media"
	"github.com/RyanBlaney/ritmo-radar/spectrum"
)

func main() {
	var (
		configPath = flag.String("c", "", "path to YAML configuration file")
		mic        = flag.Bool("mic", false, "capture from the default input device instead of a file")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logging.SetLevel(logging.DebugLevel)
	}

	cfg := beat.DefaultConfig()
	if *configPath != "" {
		loaded, err := beat.LoadConfig(*configPath)
		if err != nil {
			logging.Fatal(err, "failed to load configuration")
		}
		cfg = loaded
	}

	var (
		src spectrum.Source
		err error
	)
	if *mic {
		src, err = capture.OpenMicrophone(0, cfg.FFTSize)
	} else {
		path := flag.Arg(0)
		if path == "" {
			fmt.Fprintln(os.Stderr, "usage: beatmon [-c config.yaml] track.wav | -mic")
			os.Exit(2)
		}
		src, err = media.OpenWAV(path, cfg.FFTSize)
	}
	if err != nil {
		logging.Fatal(err, "failed to open media source")
	}

	detector := beat.NewDetector(cfg)

	beatLine := color.New(color.FgGreen, color.Bold)
	lockLine := color.New(color.FgCyan, color.Bold)
	lockAnnounced := false

	stop, err := detector.Start(src, func(timestamp, intensity float64) {
		if bpm, ok := detector.LockedBPM(); ok {
			if !lockAnnounced {
				lockAnnounced = true
				lockLine.Printf("tempo locked at %.1f BPM, switching to scheduled beats\n", bpm)
			}
			beatLine.Printf("beat %8.3fs  intensity %.2f  [%.1f BPM]\n", timestamp, intensity, bpm)
			return
		}
		beatLine.Printf("beat %8.3fs  intensity %.2f\n", timestamp, intensity)
	})
	if err != nil {
		logging.Fatal(err, "failed to start beat detector")
	}
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	// File playback ends on its own; the microphone runs until
	// interrupted.
	if file, ok := src.(*media.WAVSource); ok {
		poll := time.NewTicker(200 * time.Millisecond)
		defer poll.Stop()
		for {
			select {
			case <-sig:
				return
			case <-poll.C:
				if !file.Playing() {
					return
				}
			}
		}
	}
	<-sig
}
