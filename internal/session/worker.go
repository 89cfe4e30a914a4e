package session

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/felo/sportai-web-sub011/internal/monitoring"
	"github.com/felo/sportai-web-sub011/internal/overlay"
	"github.com/felo/sportai-web-sub011/internal/pose"
	"github.com/felo/sportai-web-sub011/internal/timeutil"
)

// RecorderOptions tunes the sample recorder. Zero values fall back to the
// defaults below.
type RecorderOptions struct {
	FlushInterval time.Duration // how often buffered samples are written (2s)
	BatchSize     int           // max samples per transaction (64)
	QueueDepth    int           // channel capacity before drops begin (256)
	Clock         timeutil.Clock
}

const (
	defaultFlushInterval = 2 * time.Second
	defaultBatchSize     = 64
	defaultQueueDepth    = 256
)

// Recorder buffers per-frame overlay samples and flushes them to the store
// in batches. Record never blocks the render loop: when the queue is full
// the sample is dropped and counted.
type Recorder struct {
	store     *Store
	sessionID string

	flushInterval time.Duration
	batchSize     int
	clock         timeutil.Clock

	queue   chan Sample
	dropped atomic.Int64
	written atomic.Int64
}

// NewRecorder creates a recorder for the given session.
func NewRecorder(store *Store, sessionID string, opts RecorderOptions) *Recorder {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = defaultQueueDepth
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	return &Recorder{
		store:         store,
		sessionID:     sessionID,
		flushInterval: opts.FlushInterval,
		batchSize:     opts.BatchSize,
		clock:         opts.Clock,
		queue:         make(chan Sample, opts.QueueDepth),
	}
}

// Record converts one rendered frame into a sample and enqueues it. It
// reports false when the queue was full and the sample was dropped.
func (r *Recorder) Record(frame *pose.Frame, result overlay.RenderResult) bool {
	sample := Sample{
		SessionID:   r.sessionID,
		FrameIndex:  int64(frame.Index),
		TimestampNs: frame.TimestampNanos,
		PoseCount:   len(frame.Poses),
		LabelCount:  len(result.Labels),
	}

	if est := result.Orientation; est != nil {
		angle := est.AngleDeg
		conf := est.Confidence
		ax := est.Anchor.X
		ay := est.Anchor.Y
		sample.OrientationDeg = &angle
		sample.OrientationConf = &conf
		sample.AnchorX = &ax
		sample.AnchorY = &ay
	}

	if len(frame.Poses) > 0 {
		if data, err := json.Marshal(frame.Poses); err == nil {
			sample.PosesJSON = data
		} else {
			monitoring.Logf("recorder: failed to marshal poses for frame %d: %v", frame.Index, err)
		}
	}

	select {
	case r.queue <- sample:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Run drains the queue until ctx is cancelled, flushing whenever a batch
// fills or the flush interval elapses. A final flush runs on shutdown so
// short sessions are not lost.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.flushInterval)
	defer ticker.Stop()

	batch := make([]Sample, 0, r.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.store.InsertSamples(context.Background(), batch); err != nil {
			monitoring.Logf("recorder: flush of %d samples failed: %v", len(batch), err)
		} else {
			r.written.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case sample := <-r.queue:
			batch = append(batch, sample)
			if len(batch) >= r.batchSize {
				flush()
			}
		case <-ticker.C():
			flush()
		case <-ctx.Done():
			// Drain whatever is still queued, then flush once more.
			for {
				select {
				case sample := <-r.queue:
					batch = append(batch, sample)
					if len(batch) >= r.batchSize {
						flush()
					}
					continue
				default:
				}
				break
			}
			flush()
			if n := r.dropped.Load(); n > 0 {
				monitoring.Logf("recorder: dropped %d samples under backpressure", n)
			}
			return nil
		}
	}
}

// Dropped returns the number of samples discarded because the queue was
// full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written returns the number of samples successfully persisted.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}
