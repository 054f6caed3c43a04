package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"ztrkr/midi"
	"ztrkr/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "note":
		testNote(os.Args[2:])
	case "panic":
		panicAll(os.Args[2:])
	case "poll":
		pollDevices(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                      - List MIDI output ports")
	fmt.Println("  note <port> [ch] [note]   - Play a short scheduled phrase")
	fmt.Println("  panic <port>              - All notes off on 16 channels")
	fmt.Println("  poll [port]               - Watch a port connect/disconnect")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names := midi.OutPortNames()
	if names == nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, n := range names {
		fmt.Printf("  %d: %s\n", i, n)
	}
}

func open(args []string) (*midi.Output, *sequencer.WallClock, bool) {
	if len(args) < 1 {
		usage()
		return nil, nil, false
	}
	clock := sequencer.NewWallClock()
	out := midi.NewOutput(clock)
	if err := out.Open(args[0]); err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil, nil, false
	}
	return out, clock, true
}

func argUint8(args []string, i int, def uint8) uint8 {
	if i >= len(args) {
		return def
	}
	v, err := strconv.Atoi(args[i])
	if err != nil || v < 0 || v > 127 {
		return def
	}
	return uint8(v)
}

// testNote schedules four notes a quarter second apart through the output
// queue, the same path the sequencer uses.
func testNote(args []string) {
	out, clock, ok := open(args)
	if !ok {
		return
	}
	defer out.Close()

	ch := argUint8(args, 1, 0) & 0x0F
	note := argUint8(args, 2, 60)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go out.Run(ctx)

	start := clock.Now() + 0.1
	for i, offset := range []uint8{0, 4, 7, 12} {
		out.Note(ch, note+offset, 100, start+float64(i)*0.25, 0.2)
	}
	fmt.Printf("Playing on %s ch %d from note %d...\n", out.PortName(), ch+1, note)

	for out.Pending() > 0 {
		time.Sleep(50 * time.Millisecond)
	}
	fmt.Println("Done!")
}

func panicAll(args []string) {
	out, _, ok := open(args)
	if !ok {
		return
	}
	defer out.Close()
	out.AllChannelsAllNotesOff()
	fmt.Println("Sent all notes off on 16 channels")
}

func pollDevices(args []string) {
	want := ""
	if len(args) > 0 {
		want = args[0]
	}
	fmt.Printf("Watching for %q. Ctrl+C to exit.\n", want)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := midi.NewOutput(sequencer.NewWallClock())
	dm := midi.NewDeviceManager(out, want)
	go dm.Run(ctx)

	for ev := range dm.Events() {
		line := fmt.Sprintf("[%s] %s %s", time.Now().Format("15:04:05"), ev.Type, ev.Port)
		if ev.Err != nil {
			line += " (" + strings.TrimSpace(ev.Err.Error()) + ")"
		}
		fmt.Println(line)
	}
}
