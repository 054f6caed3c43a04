package midi

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type fixedClock float64

func (c fixedClock) Now() float64 { return float64(c) }

type capture struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (c *capture) send(msg gomidi.Message) error {
	c.mu.Lock()
	c.msgs = append(c.msgs, append([]byte(nil), msg...))
	c.mu.Unlock()
	return nil
}

func (c *capture) all() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.msgs...)
}

func TestMessageBytes(t *testing.T) {
	cases := []struct {
		name string
		msg  gomidi.Message
		want []byte
	}{
		{"note on", NoteOnMsg(0, 36, 100), []byte{0x90, 36, 100}},
		{"note on ch 10", NoteOnMsg(9, 38, 127), []byte{0x99, 38, 127}},
		{"note off keeps velocity", NoteOffMsg(9, 38, 127), []byte{0x89, 38, 127}},
		{"all notes off", AllNotesOffMsg(15), []byte{0xBF, 123, 0}},
	}
	for _, c := range cases {
		if !bytes.Equal(c.msg.Bytes(), c.want) {
			t.Errorf("%s = % X, want % X", c.name, c.msg.Bytes(), c.want)
		}
	}
}

func TestFlushOrder(t *testing.T) {
	out := NewOutput(fixedClock(0))
	var c capture
	out.SetSender(c.send)

	out.Note(0, 60, 100, 1.0, 0.1)
	out.Note(1, 62, 90, 0.5, 0.2)
	out.NoteOn(2, 64, 80, 1.0)

	if n := out.Flush(0.9); n != 2 {
		t.Fatalf("flushed %d messages by 0.9, want 2", n)
	}
	if n := out.Flush(2); n != 3 {
		t.Fatalf("flushed %d messages by 2, want 3", n)
	}
	want := [][]byte{
		{0x91, 62, 90},
		{0x81, 62, 90},
		{0x90, 60, 100},
		{0x92, 64, 80},
		{0x80, 60, 100},
	}
	got := c.all()
	if len(got) != len(want) {
		t.Fatalf("sent %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("message %d = % X, want % X", i, got[i], want[i])
		}
	}
	if out.Pending() != 0 {
		t.Fatalf("%d messages still pending", out.Pending())
	}
}

func TestNoDeviceDrops(t *testing.T) {
	out := NewOutput(fixedClock(0))
	if out.Available() {
		t.Fatal("output available without a sender")
	}
	out.Note(0, 60, 100, 0, 0.1)
	if n := out.Flush(1); n != 0 {
		t.Fatalf("sent %d messages with no device", n)
	}
	if out.Dropped() != 2 || out.Pending() != 0 {
		t.Fatalf("dropped = %d pending = %d, want 2 and 0", out.Dropped(), out.Pending())
	}
}

func TestSendErrorNotCounted(t *testing.T) {
	out := NewOutput(fixedClock(0))
	out.SetSender(func(gomidi.Message) error { return errors.New("unplugged") })
	out.NoteOn(0, 60, 100, 0)
	if n := out.Flush(1); n != 0 {
		t.Fatalf("failed send counted: %d", n)
	}
}

func TestClear(t *testing.T) {
	out := NewOutput(fixedClock(0))
	var c capture
	out.SetSender(c.send)
	out.Note(0, 60, 100, 0.5, 0.1)
	out.Note(0, 62, 100, 0.6, 0.1)

	out.Clear()
	if out.Pending() != 0 {
		t.Fatalf("%d pending after Clear", out.Pending())
	}
	if n := out.Flush(10); n != 0 || len(c.all()) != 0 {
		t.Fatal("cleared messages were sent")
	}
}

func TestAllChannelsAllNotesOff(t *testing.T) {
	out := NewOutput(fixedClock(0))
	var c capture
	out.SetSender(c.send)
	out.AllChannelsAllNotesOff()

	got := c.all()
	if len(got) != NumChannels {
		t.Fatalf("sent %d messages, want %d", len(got), NumChannels)
	}
	for ch, msg := range got {
		if !bytes.Equal(msg, []byte{0xB0 | byte(ch), 123, 0}) {
			t.Fatalf("channel %d: % X", ch, msg)
		}
	}
}

func TestRunSendsDueMessages(t *testing.T) {
	out := NewOutput(fixedClock(5))
	var c capture
	out.SetSender(c.send)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		out.Run(ctx)
		close(done)
	}()

	out.NoteOn(0, 60, 100, 4.9)
	out.NoteOn(0, 61, 100, 60)

	deadline := time.Now().Add(2 * time.Second)
	for len(c.all()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	got := c.all()
	if len(got) != 1 || got[0][1] != 60 {
		t.Fatalf("sent % X, want only the due note", got)
	}
	if out.Pending() != 1 {
		t.Fatalf("pending = %d, want the future note", out.Pending())
	}
}
