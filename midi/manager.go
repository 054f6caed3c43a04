package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"ztrkr/debug"
)

// DeviceEvent is emitted when the watched output port comes or goes.
type DeviceEvent struct {
	Type DeviceEventType
	Port string
	Err  error
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// PortLister returns the currently visible output port names.
type PortLister func() []string

// DeviceManager keeps an Output attached to the configured port across
// unplug and replug. Every (re)connect is followed by all-notes-off on
// every channel so nothing hangs from before the drop.
type DeviceManager struct {
	out      *Output
	want     string
	list     PortLister
	open     func(string) error
	pollRate time.Duration

	mu        sync.Mutex
	connected string
	events    chan DeviceEvent
}

func NewDeviceManager(out *Output, portName string) *DeviceManager {
	return &DeviceManager{
		out:      out,
		want:     portName,
		list:     OutPortNames,
		open:     out.Open,
		pollRate: time.Second,
		events:   make(chan DeviceEvent, 16),
	}
}

// Events returns a channel of connect/disconnect events.
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Connected returns the attached port name, or "".
func (dm *DeviceManager) Connected() string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.connected
}

// Run polls the port list until ctx is done (blocking, run in a goroutine).
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()
	for {
		select {
		case <-ctx.Done():
			dm.out.AllChannelsAllNotesOff()
			dm.out.Close()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	names := dm.list()
	if names == nil {
		return
	}

	port := matchPort(names, dm.want)
	dm.mu.Lock()
	current := dm.connected
	dm.mu.Unlock()

	switch {
	case port != "" && current == "":
		if err := dm.open(port); err != nil {
			debug.Log("midi", "reconnect %q failed: %v", port, err)
			dm.emit(DeviceEvent{Type: DeviceDisconnected, Port: port, Err: err})
			return
		}
		dm.out.AllChannelsAllNotesOff()
		dm.mu.Lock()
		dm.connected = port
		dm.mu.Unlock()
		dm.emit(DeviceEvent{Type: DeviceConnected, Port: port})
	case port == "" && current != "":
		dm.out.Close()
		dm.mu.Lock()
		dm.connected = ""
		dm.mu.Unlock()
		debug.Log("midi", "output %q went away", current)
		dm.emit(DeviceEvent{Type: DeviceDisconnected, Port: current})
	}
}

func (dm *DeviceManager) emit(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
	}
}

// matchPort finds want among names, exactly first and then as a
// case-insensitive substring. An empty want takes the first port.
func matchPort(names []string, want string) string {
	if len(names) == 0 {
		return ""
	}
	if want == "" {
		return names[0]
	}
	for _, n := range names {
		if n == want {
			return n
		}
	}
	lw := strings.ToLower(want)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), lw) {
			return n
		}
	}
	return ""
}

// OutPortNames lists output ports. It gives up after 3 seconds, since
// CoreMIDI can hang, and then returns nil.
func OutPortNames() []string {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		names := make([]string, 0, len(outs))
		for _, p := range outs {
			names = append(names, p.String())
		}
		return names
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return nil
	}
}
