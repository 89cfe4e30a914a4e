package videoio

import (
	"errors"
	"io"

	"github.com/felo/sportai-web-sub011/internal/pose"
)

// logCursor steps a frame-ordered pose source in lockstep with video frame
// indices. Detector logs may skip frames, so a lookup can come up empty;
// the cursor never rewinds.
type logCursor struct {
	src     pose.Source
	pending *pose.Frame
	done    bool
}

func newLogCursor(src pose.Source) *logCursor {
	return &logCursor{src: src}
}

// FrameAt returns the log frame matching the video frame index, or nil
// when the log has no entry for it. Indices must be requested in
// increasing order.
func (c *logCursor) FrameAt(index int) (*pose.Frame, error) {
	for !c.done {
		if c.pending == nil {
			frame, err := c.src.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					c.done = true
					break
				}
				return nil, err
			}
			c.pending = frame
		}
		if c.pending.Index > index {
			return nil, nil
		}
		if c.pending.Index == index {
			frame := c.pending
			c.pending = nil
			return frame, nil
		}
		// Log frame is older than the video position; drop it.
		c.pending = nil
	}
	return nil, nil
}
