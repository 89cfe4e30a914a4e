package pose

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogWriter appends frames to a pose log, one JSON object per line.
type LogWriter struct {
	f  *os.File
	bw *bufio.Writer
}

// CreateLog creates (or truncates) a pose log at path.
func CreateLog(path string) (*LogWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pose log: %w", err)
	}
	return &LogWriter{f: f, bw: bufio.NewWriter(f)}, nil
}

// WriteFrame appends one frame to the log.
func (w *LogWriter) WriteFrame(frame *Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame %d: %w", frame.Index, err)
	}
	if _, err := w.bw.Write(data); err != nil {
		return fmt.Errorf("write frame %d: %w", frame.Index, err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("write frame %d: %w", frame.Index, err)
	}
	return nil
}

// Close flushes buffered frames and closes the underlying file.
func (w *LogWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush pose log: %w", err)
	}
	return w.f.Close()
}

// LogReader replays frames from a pose log written by LogWriter. It
// implements Source and returns io.EOF when the log is exhausted.
type LogReader struct {
	f       *os.File
	scanner *bufio.Scanner
	line    int
}

// maxLogLine bounds a single frame line. Frames with dozens of poses fit
// well under this.
const maxLogLine = 4 * 1024 * 1024

// OpenLog opens a pose log for replay.
func OpenLog(path string) (*LogReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pose log: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLogLine)
	return &LogReader{f: f, scanner: sc}, nil
}

// Next returns the next frame in the log, or io.EOF after the last one.
func (r *LogReader) Next() (*Frame, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, fmt.Errorf("pose log line %d: %w", r.line, err)
		}
		return &frame, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pose log: %w", err)
	}
	return nil, io.EOF
}

// Close closes the underlying file.
func (r *LogReader) Close() error {
	return r.f.Close()
}
