package midi

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"ztrkr/debug"
)

// ErrNoDevice is returned when a port cannot be found.
var ErrNoDevice = errors.New("midi output device not available")

// Clock is the timeline event times are expressed in, in seconds.
type Clock interface {
	Now() float64
}

// Sender writes one message to a device.
type Sender func(gomidi.Message) error

// Output holds timestamped messages until they are due and writes them to
// the open port. With no port attached, due messages are dropped.
type Output struct {
	clock Clock

	mu       sync.Mutex
	queue    eventQueue
	seq      uint64
	send     Sender
	portName string
	closer   func() error
	dropped  int

	wake chan struct{}
}

func NewOutput(clock Clock) *Output {
	return &Output{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// SetSender attaches a sender directly, or detaches with nil.
func (o *Output) SetSender(send Sender) {
	o.mu.Lock()
	o.send = send
	o.mu.Unlock()
}

// Open attaches the named output port.
func (o *Output) Open(portName string) error {
	port, err := gomidi.FindOutPort(portName)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNoDevice, portName)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return fmt.Errorf("open %q: %w", portName, err)
	}

	o.mu.Lock()
	o.send = send
	o.portName = portName
	o.closer = port.Close
	o.mu.Unlock()
	debug.Log("midi", "opened output %q", portName)
	return nil
}

// Close detaches and closes the port, if any.
func (o *Output) Close() error {
	o.mu.Lock()
	closer := o.closer
	o.send = nil
	o.closer = nil
	o.portName = ""
	o.mu.Unlock()
	if closer != nil {
		return closer()
	}
	return nil
}

// PortName returns the attached port, or "".
func (o *Output) PortName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.portName
}

// Available reports whether a sender is attached.
func (o *Output) Available() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send != nil
}

// Schedule queues msg for time at.
func (o *Output) Schedule(at float64, msg gomidi.Message) {
	o.mu.Lock()
	o.seq++
	heap.Push(&o.queue, &Event{Time: at, Msg: msg, seq: o.seq})
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Output) NoteOn(ch, note, vel uint8, at float64) {
	o.Schedule(at, NoteOnMsg(ch, note, vel))
}

func (o *Output) NoteOff(ch, note, vel uint8, at float64) {
	o.Schedule(at, NoteOffMsg(ch, note, vel))
}

// Note queues a note-on at start and its note-off dur seconds later.
func (o *Output) Note(ch, note, vel uint8, start, dur float64) {
	o.NoteOn(ch, note, vel, start)
	o.NoteOff(ch, note, vel, start+dur)
}

// AllNotesOff sends all-notes-off on ch right away.
func (o *Output) AllNotesOff(ch uint8) {
	o.write(AllNotesOffMsg(ch))
}

// AllChannelsAllNotesOff sends all-notes-off on every channel right away.
func (o *Output) AllChannelsAllNotesOff() {
	for ch := uint8(0); ch < NumChannels; ch++ {
		o.AllNotesOff(ch)
	}
}

// Clear drops every message not yet sent.
func (o *Output) Clear() {
	o.mu.Lock()
	n := len(o.queue)
	o.queue = o.queue[:0]
	o.mu.Unlock()
	if n > 0 {
		debug.Log("midi", "cleared %d pending messages", n)
	}
}

// Pending returns the number of queued messages.
func (o *Output) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Dropped returns how many messages found no device.
func (o *Output) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Flush sends, in time order, every queued message due at or before upTo.
// It returns the number handed to the device.
func (o *Output) Flush(upTo float64) int {
	sent := 0
	for {
		o.mu.Lock()
		if len(o.queue) == 0 || o.queue[0].Time > upTo {
			o.mu.Unlock()
			return sent
		}
		ev := heap.Pop(&o.queue).(*Event)
		o.mu.Unlock()

		if o.write(ev.Msg) {
			sent++
		}
	}
}

// Run sends queued messages as they come due until ctx is done.
func (o *Output) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		o.Flush(o.clock.Now())

		wait := time.Hour
		o.mu.Lock()
		if len(o.queue) > 0 {
			wait = time.Duration((o.queue[0].Time - o.clock.Now()) * float64(time.Second))
		}
		o.mu.Unlock()
		if wait < 0 {
			wait = 0
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		case <-timer.C:
		}
	}
}

func (o *Output) write(msg gomidi.Message) bool {
	o.mu.Lock()
	send := o.send
	if send == nil {
		o.dropped++
	}
	o.mu.Unlock()

	if send == nil {
		debug.LogEvery(64, "midi", "no device, dropped %s", msg)
		return false
	}
	if err := send(msg); err != nil {
		debug.Log("midi", "send %s: %v", msg, err)
		return false
	}
	return true
}

// eventQueue is a min-heap on Time, FIFO for equal times.
type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].Time != q[j].Time {
		return q[i].Time < q[j].Time
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*Event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}
