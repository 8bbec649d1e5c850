package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	stepbox "github.com/kallaste/stepbox-go"
	"github.com/kallaste/stepbox-go/internal/audio"
	"github.com/kallaste/stepbox-go/internal/clip"
	"github.com/kallaste/stepbox-go/internal/compose"
	"github.com/kallaste/stepbox-go/internal/project"
	"github.com/kallaste/stepbox-go/internal/trackdef"
)

const defaultDefs = "v=8 [synth=do,mi,sol,mi], v=6 [drums=kick,hihat,snare,hihat]"

func main() {
	var (
		defsInline = flag.String("defs", "", "inline track definition string")
		defsPath   = flag.String("file", "", "path to a track definition file")
		bpm        = flag.Int("bpm", 120, "tempo in beats per minute")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		export     = flag.Bool("export", false, "render to a WAV file instead of playing live")
		projectID  = flag.String("project", "", "project identifier (names exports and store entries)")
		storeDir   = flag.String("dir", "projects", "project store directory")
		saveFlag   = flag.Bool("save", false, "save the definition to the project store")
		loadFlag   = flag.Bool("load", false, "load the definition from the project store")
		notes      = flag.String("notes", "", "free-text notes stored with -save")
		suggest    = flag.String("suggest", "", "ask the suggestion service to rework the definition")
		aiURL      = flag.String("ai-url", "http://localhost:8721", "suggestion service base URL")
		clipPath   = flag.String("clip", "", "audition an audio file instead of sequencing")
		clipStart  = flag.Duration("clip-start", 0, "clip trim start")
		clipDur    = flag.Duration("clip-dur", 0, "clip trim length (0 = to end)")
		playFor    = flag.Duration("play-for", 0, "stop live playback after this long (0 = until interrupt)")
	)
	flag.Parse()

	if *clipPath != "" {
		if err := auditionClip(*clipPath, *clipStart, *clipDur); err != nil {
			log.Fatal(err)
		}
		return
	}

	defs, tempo, err := resolveDefinition(*defsInline, *defsPath, *loadFlag, *storeDir, *projectID, *bpm)
	if err != nil {
		log.Fatal(err)
	}

	if *suggest != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		proposed, err := compose.NewClient(*aiURL).Suggest(ctx, defs, *suggest)
		cancel()
		if err != nil {
			// The previous definition stays in effect.
			log.Printf("suggestion failed: %v", err)
		} else {
			defs = proposed
			fmt.Printf("suggested: %s\n", defs)
		}
	}

	if *saveFlag {
		store, err := project.NewStore(*storeDir)
		if err != nil {
			log.Fatal(err)
		}
		id := *projectID
		if id == "" {
			id = stepbox.DefaultProjectName
		}
		if err := store.Save(id, project.Project{Definition: defs, BPM: tempo, Notes: *notes}); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("saved project %q\n", id)
	}

	if *export {
		name, data, err := stepbox.ExportWAV(defs, tempo, *sampleRate, *projectID, stepbox.WithDiagnostics(logDiagnostic))
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", name, len(data))
		return
	}

	playLive(defs, tempo, *sampleRate, *playFor)
}

func resolveDefinition(inline, path string, load bool, dir, id string, bpm int) (string, int, error) {
	if load {
		store, err := project.NewStore(dir)
		if err != nil {
			return "", 0, err
		}
		p, err := store.Load(id)
		if err != nil {
			return "", 0, err
		}
		return p.Definition, p.BPM, nil
	}
	if strings.TrimSpace(inline) != "" {
		return inline, bpm, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", 0, err
		}
		return string(data), bpm, nil
	}
	return defaultDefs, bpm, nil
}

func playLive(defs string, bpm, sampleRate int, playFor time.Duration) {
	pl, err := stepbox.NewPlayer(sampleRate, stepbox.WithDiagnostics(logDiagnostic))
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.Start(defs, bpm); err != nil {
		log.Fatal(err)
	}
	defer pl.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if playFor > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(playFor):
		}
		return
	}
	fmt.Println("playing; press Ctrl-C to stop")
	<-ctx.Done()
}

func auditionClip(path string, start, length time.Duration) error {
	c, err := clip.Load(path)
	if err != nil {
		return err
	}
	trimmed := c.Trim(start, length)
	src := trimmed.Source()
	out, err := audio.NewOutput(c.SampleRate(), src)
	if err != nil {
		return err
	}
	defer out.Close()
	out.Start()
	fmt.Printf("auditioning %s (%v)\n", path, trimmed.Duration())
	for !src.Done() {
		time.Sleep(50 * time.Millisecond)
	}
	// Let the device drain its last buffer.
	time.Sleep(200 * time.Millisecond)
	return nil
}

func logDiagnostic(d trackdef.Diagnostic) {
	log.Printf("track %d: %s (%q)", d.Clause, d.Msg, d.Token)
}
