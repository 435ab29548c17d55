package serialport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sweeney/traffic-light/internal/logic"
)

// MaxLineLength bounds one input line. Longer lines are an error.
const MaxLineLength = 256

// ReadLines calls handle for every non-empty line read from r, without the
// line terminator, until r is exhausted or ctx is done. A clean EOF returns
// nil.
func ReadLines(ctx context.Context, r io.Reader, handle func(line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64), MaxLineLength)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		handle(line)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read lines: %w", err)
	}
	return nil
}

// LineSink writes status and notice lines to a port. It implements
// logic.Sink and is safe for concurrent use.
type LineSink struct {
	mu      sync.Mutex
	w       io.Writer
	notices bool
	failed  bool
}

// NewLineSink returns a sink writing to w. When notices is false only status
// lines are written.
func NewLineSink(w io.Writer, notices bool) *LineSink {
	return &LineSink{w: w, notices: notices}
}

// Status writes one status line.
func (s *LineSink) Status(st logic.Status) {
	s.write(st.String())
}

// Notice writes a notice line if notices are enabled.
func (s *LineSink) Notice(msg string) {
	if s.notices {
		s.write(msg)
	}
}

// WriteLine writes an arbitrary line.
func (s *LineSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// write logs the first failure of a run of failures only.
func (s *LineSink) write(line string) {
	err := s.WriteLine(line)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil && !s.failed:
		log.Warn("Serial write failed", "error", err)
		s.failed = true
	case err == nil && s.failed:
		log.Info("Serial write recovered")
		s.failed = false
	}
}
