// Command boocli is a MIDI-driven multi-track audio looper. It binds a
// control surface and a MIDI clock source to a realtime audio stream and
// lights the surface's pads to reflect each track's state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"

	"github.com/chriskillpack/boocli/audiohost"
	"github.com/chriskillpack/boocli/boocfg"
	"github.com/chriskillpack/boocli/engine"
	"github.com/chriskillpack/boocli/midiio"
	"github.com/chriskillpack/boocli/snapshot"
)

var (
	flagHz       = flag.Int("hz", 44100, "output sample rate")
	flagSnapshot = flag.String("snapshot", "./boocli.sav", "path to the save/load snapshot file")
	flagList     = flag.Bool("list", false, "list available MIDI ports and exit")
	flagNoUI     = flag.Bool("noui", false, "disable the status line")
	flagVerbose  = flag.Bool("v", false, "verbose logging")
)

const (
	trackCapacitySeconds = 300 // longest recordable loop per track, in seconds
	numBarRows           = 2
)

var (
	white  = color.New(color.FgWhite).SprintfFunc()
	cyan   = color.New(color.FgCyan).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("boocli: ")

	flag.Parse()

	if *flagList {
		midiio.ListPorts(os.Stdout)
		return
	}

	configPath := "./boocli.yaml"
	if flag.NArg() > 0 {
		configPath = flag.Arg(0)
	}
	clientName := filepath.Base(os.Args[0])
	if flag.NArg() > 1 {
		clientName = flag.Arg(1)
	}
	serverName := ""
	if flag.NArg() > 2 {
		serverName = flag.Arg(2)
	}
	if *flagVerbose && serverName != "" {
		log.Printf("server name %s (informational; port names come from the config)", serverName)
	}

	doc, err := boocfg.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	bindings := boocfg.Resolve(log.Default(), doc, doc.Engine.MaxTracks, numBarRows)

	eng := engine.NewEngine(doc.Engine.MaxTracks, trackCapacitySeconds*(*flagHz), numBarRows, doc.Engine.ClockPPBar)
	eng.SeamSamples = doc.Engine.SeamSamples

	if f, err := os.Open(*flagSnapshot); err == nil {
		err := snapshot.Load(f, eng)
		f.Close()
		if err != nil {
			log.Printf("load snapshot %s: %v", *flagSnapshot, err)
		} else if *flagVerbose {
			log.Printf("loaded snapshot %s", *flagSnapshot)
		}
	}

	controlPort, clockPort, outPort := resolvePortNames(doc, clientName)

	transport, err := midiio.Open(eng, bindings, log.Default(), controlPort, clockPort, outPort)
	if err != nil {
		log.Fatal(err)
	}
	defer transport.Close()

	if err := portaudio.Initialize(); err != nil {
		log.Fatal(err)
	}
	defer portaudio.Terminate()

	stream, err := audiohost.Open(eng, transport, *flagHz)
	if err != nil {
		log.Fatal(err)
	}
	defer stream.Close()

	fmt.Println(green("boocli running"), "-", doc.Name, "-", yellow("%d Hz", *flagHz))

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go pollLoadSave(ctx, &wg, eng, transport)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-sigch:
			break loop
		case <-ticker.C:
			if !*flagNoUI {
				renderStatus(os.Stdout, eng)
			}
		}
	}
	fmt.Println()

	cancel()
	wg.Wait()

	if err := saveSnapshot(eng); err != nil {
		log.Printf("save snapshot %s: %v", *flagSnapshot, err)
	}
}

// pollLoadSave runs the once-a-second control loop: LOAD/SAVE pad presses
// only raise a flag on the realtime thread, and disk I/O plus the
// post-load track reset happen here instead.
func pollLoadSave(ctx context.Context, wg *sync.WaitGroup, eng *engine.Engine, transport *midiio.Transport) {
	defer wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if eng.LoadRequested.Load() {
				if f, err := os.Open(*flagSnapshot); err != nil {
					log.Printf("load snapshot %s: %v", *flagSnapshot, err)
				} else {
					err := snapshot.Load(f, eng)
					f.Close()
					if err != nil {
						log.Printf("load snapshot %s: %v", *flagSnapshot, err)
					}
				}
				eng.ApplyLoadReset()
				transport.FlushLEDs()
			}

			if eng.SaveRequested.Load() {
				if err := saveSnapshot(eng); err != nil {
					log.Printf("save snapshot %s: %v", *flagSnapshot, err)
				}
				eng.AckSave()
				transport.FlushLEDs()
			}
		}
	}
}

// renderStatus redraws the single live status line: BBT position, time
// signature and one glyph per track. The reads race the audio callback; a
// briefly stale digit is harmless.
func renderStatus(w *os.File, eng *engine.Engine) {
	sig := eng.BBT.Signature()

	var tracks []string
	for _, t := range eng.Tracks {
		tracks = append(tracks, trackGlyph(t))
	}

	fmt.Fprintf(w, "\r%s %s  %s ",
		cyan("%d/%d", sig.Numerator, sig.Denominator),
		white("bar %3d beat %d", eng.BBT.Bar, eng.BBT.Beat),
		strings.Join(tracks, " "))
}

// trackGlyph compresses one track's state into a colored letter: R while
// recording, P while playing, m muted, s soloed, - idle.
func trackGlyph(t *engine.Track) string {
	switch {
	case t.Status(engine.FuncRecord) == engine.StatusOn || t.Status(engine.FuncRecord) == engine.StatusPendingOff:
		return red("R")
	case t.Status(engine.FuncSolo) == engine.StatusOn:
		return yellow("s")
	case t.Status(engine.FuncMute) == engine.StatusOn:
		return white("m")
	case t.Status(engine.FuncPlay) == engine.StatusOn || t.Status(engine.FuncPlay) == engine.StatusPendingOff:
		return green("P")
	default:
		return white("-")
	}
}

// resolvePortNames picks control/clock/output MIDI port names out of the
// config's connections section, falling back to clientName so a freshly
// written config with no connections block still opens something.
func resolvePortNames(doc *boocfg.Document, clientName string) (control, clock, out string) {
	control, clock, out = clientName, "", clientName

	if len(doc.Connections.MIDIInput) > 0 {
		control = doc.Connections.MIDIInput[0].Client
	}
	if len(doc.Connections.MIDIClock) > 0 {
		clock = doc.Connections.MIDIClock[0].Client
	}
	if len(doc.Connections.MIDIOutput) > 0 {
		out = doc.Connections.MIDIOutput[0].Client
	}
	return control, clock, out
}

// saveSnapshot writes eng's current state to flagSnapshot via a temp file
// plus rename, so a crash mid-write never corrupts the previous save.
func saveSnapshot(eng *engine.Engine) error {
	data, err := snapshot.Bytes(eng)
	if err != nil {
		return err
	}

	tmp := *flagSnapshot + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, *flagSnapshot)
}
