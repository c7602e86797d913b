package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestEmitterOutput(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	e.Total(3)
	e.Tick()
	e.Tick()

	want := "PROGRESS:TOTAL:3\nPROGRESS:TICK:1:3\nPROGRESS:TICK:2:3\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestNilEmitterIsSilent(t *testing.T) {
	e := NewEmitter(nil)
	e.Total(2)
	e.Tick() // must not panic
}

func TestScannerRoundTrip(t *testing.T) {
	var wire bytes.Buffer
	e := NewEmitter(&wire)
	e.Total(2)
	e.Tick()
	e.Tick()

	s := NewScanner(&wire, nil)
	var events []Event
	for s.Scan() {
		events = append(events, s.Event())
	}
	if s.Err() != nil {
		t.Fatal(s.Err())
	}

	want := []Event{{Total: 2}, {Done: 1, Total: 2}, {Done: 2, Total: 2}}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestScannerPassthrough(t *testing.T) {
	input := "some log line\nPROGRESS:TOTAL:1\nanother line\nPROGRESS:TICK:1:1\n"
	var passthrough bytes.Buffer

	s := NewScanner(strings.NewReader(input), &passthrough)
	count := 0
	for s.Scan() {
		count++
	}
	if count != 2 {
		t.Errorf("protocol events = %d, want 2", count)
	}
	if got := passthrough.String(); got != "some log line\nanother line\n" {
		t.Errorf("passthrough = %q", got)
	}
}

func TestMalformedLinesIgnored(t *testing.T) {
	input := "PROGRESS:TOTAL:abc\nPROGRESS:TICK:1\nPROGRESS:TICK:-1:5\nPROGRESS:TOTAL:4\n"
	s := NewScanner(strings.NewReader(input), nil)

	if !s.Scan() {
		t.Fatal("expected one valid event")
	}
	if s.Event().Total != 4 {
		t.Errorf("event = %v", s.Event())
	}
	if s.Scan() {
		t.Error("expected no further events")
	}
}
