package midi

import (
	"errors"
	"testing"
)

func TestMatchPort(t *testing.T) {
	names := []string{"IAC Driver Bus 1", "RD-8 MIDI 1", "rd-8"}
	cases := []struct {
		want, got string
	}{
		{"", "IAC Driver Bus 1"},
		{"rd-8", "rd-8"},
		{"RD-8", "RD-8 MIDI 1"},
		{"iac", "IAC Driver Bus 1"},
		{"TR-8S", ""},
	}
	for _, c := range cases {
		if got := matchPort(names, c.want); got != c.got {
			t.Errorf("matchPort(%q) = %q, want %q", c.want, got, c.got)
		}
	}
	if got := matchPort(nil, ""); got != "" {
		t.Errorf("matchPort on no ports = %q", got)
	}
}

// newTestManager wires a manager to a fake port list and a capturing sender.
func newTestManager(ports *[]string, openErr *error) (*DeviceManager, *capture) {
	out := NewOutput(fixedClock(0))
	c := &capture{}
	dm := NewDeviceManager(out, "rd-8")
	dm.list = func() []string { return *ports }
	dm.open = func(name string) error {
		if *openErr != nil {
			return *openErr
		}
		out.mu.Lock()
		out.portName = name
		out.mu.Unlock()
		out.SetSender(c.send)
		return nil
	}
	return dm, c
}

func TestDeviceManagerReconnect(t *testing.T) {
	ports := []string{"IAC Driver Bus 1"}
	var openErr error
	dm, c := newTestManager(&ports, &openErr)

	dm.scan()
	if dm.Connected() != "" {
		t.Fatalf("connected to %q without the wanted port", dm.Connected())
	}

	ports = append(ports, "RD-8")
	dm.scan()
	ev := <-dm.Events()
	if ev.Type != DeviceConnected || ev.Port != "RD-8" {
		t.Fatalf("event = %+v", ev)
	}
	if n := len(c.all()); n != NumChannels {
		t.Fatalf("connect sent %d messages, want all-notes-off on %d channels", n, NumChannels)
	}

	ports = ports[:1]
	dm.scan()
	ev = <-dm.Events()
	if ev.Type != DeviceDisconnected || ev.Port != "RD-8" {
		t.Fatalf("event = %+v", ev)
	}
	if dm.Connected() != "" || dm.out.Available() {
		t.Fatal("output still attached after unplug")
	}

	ports = append(ports, "RD-8")
	dm.scan()
	if ev := <-dm.Events(); ev.Type != DeviceConnected {
		t.Fatalf("replug event = %+v", ev)
	}
	if n := len(c.all()); n != 2*NumChannels {
		t.Fatalf("replug did not flush hanging notes: %d messages", n)
	}
}

func TestDeviceManagerOpenFailure(t *testing.T) {
	ports := []string{"RD-8"}
	openErr := errors.New("busy")
	dm, _ := newTestManager(&ports, &openErr)

	dm.scan()
	ev := <-dm.Events()
	if ev.Type != DeviceDisconnected || !errors.Is(ev.Err, openErr) {
		t.Fatalf("event = %+v", ev)
	}
	if dm.Connected() != "" {
		t.Fatal("marked connected after a failed open")
	}
}

func TestDeviceManagerIgnoresTimedOutScan(t *testing.T) {
	ports := []string{"RD-8"}
	var openErr error
	dm, _ := newTestManager(&ports, &openErr)
	dm.scan()
	<-dm.Events()

	ports = nil
	dm.scan()
	if dm.Connected() != "RD-8" {
		t.Fatal("a timed out scan disconnected the device")
	}
}
