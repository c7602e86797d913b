// Package progress implements the line-oriented progress protocol spoken
// between long-running workers (the importer) and their callers. A worker
// announces the amount of work once, then ticks as units complete:
//
//	PROGRESS:TOTAL:42
//	PROGRESS:TICK:1:42
//	PROGRESS:TICK:2:42
//
// Lines that do not match the protocol pass through untouched, so a worker
// can interleave ordinary output with progress lines.
package progress

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	totalPrefix = "PROGRESS:TOTAL:"
	tickPrefix  = "PROGRESS:TICK:"
)

// Emitter writes protocol lines to an underlying writer.
type Emitter struct {
	w     io.Writer
	total int
	done  int
}

// NewEmitter creates an emitter. A nil writer yields a no-op emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Total announces the total number of work units.
func (e *Emitter) Total(n int) {
	e.total = n
	e.done = 0
	if e.w == nil {
		return
	}
	fmt.Fprintf(e.w, "%s%d\n", totalPrefix, n)
}

// Tick marks one unit of work complete.
func (e *Emitter) Tick() {
	e.done++
	if e.w == nil {
		return
	}
	fmt.Fprintf(e.w, "%s%d:%d\n", tickPrefix, e.done, e.total)
}

// Event is one decoded protocol line.
type Event struct {
	Total int
	Done  int
}

// Scanner reads protocol lines from a worker's output stream. Non-protocol
// lines are forwarded to the passthrough writer if one is set.
type Scanner struct {
	scanner     *bufio.Scanner
	passthrough io.Writer
	event       Event
	err         error
}

// NewScanner wraps a worker's output stream. passthrough may be nil to
// discard non-protocol lines.
func NewScanner(r io.Reader, passthrough io.Writer) *Scanner {
	return &Scanner{
		scanner:     bufio.NewScanner(r),
		passthrough: passthrough,
	}
}

// Scan advances to the next protocol event. It returns false at end of
// stream or on a read error.
func (s *Scanner) Scan() bool {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		event, ok := parseLine(line)
		if !ok {
			if s.passthrough != nil {
				fmt.Fprintln(s.passthrough, line)
			}
			continue
		}
		s.event = event
		return true
	}
	s.err = s.scanner.Err()
	return false
}

// Event returns the most recent protocol event.
func (s *Scanner) Event() Event {
	return s.event
}

// Err returns the first read error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}

func parseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)

	if rest, ok := strings.CutPrefix(line, totalPrefix); ok {
		total, err := strconv.Atoi(rest)
		if err != nil || total < 0 {
			return Event{}, false
		}
		return Event{Total: total}, true
	}

	if rest, ok := strings.CutPrefix(line, tickPrefix); ok {
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return Event{}, false
		}
		done, err := strconv.Atoi(parts[0])
		if err != nil || done < 0 {
			return Event{}, false
		}
		total, err := strconv.Atoi(parts[1])
		if err != nil || total < 0 {
			return Event{}, false
		}
		return Event{Done: done, Total: total}, true
	}

	return Event{}, false
}
