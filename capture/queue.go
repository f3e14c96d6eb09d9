package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/filmlook"
	"github.com/gogpu/filmlook/preset"
)

// Queue errors.
var (
	// ErrClosed is returned when submitting to a closed queue.
	ErrClosed = errors.New("capture: queue closed")

	// ErrQueueFull is returned when the queue already holds its maximum
	// number of pending jobs.
	ErrQueueFull = errors.New("capture: queue full")

	// ErrUnknownJob is returned by Wait for IDs the queue does not know,
	// including results that were already collected or have expired.
	ErrUnknownJob = errors.New("capture: unknown job")
)

// Defaults.
const (
	DefaultDepth       = 64
	DefaultJPEGQuality = 92
	DefaultRetain      = 256
)

// Kind is the type of a job.
type Kind uint8

const (
	// KindCapture renders at Capture tier and encodes a JPEG.
	KindCapture Kind = iota

	// KindGalleryPreview renders a downscaled gallery thumbnail.
	KindGalleryPreview
)

func (k Kind) String() string {
	switch k {
	case KindCapture:
		return "capture"
	case KindGalleryPreview:
		return "gallery"
	default:
		return "unknown"
	}
}

// Result is the outcome of a job. On failure Image and JPEG are nil.
type Result struct {
	ID       uuid.UUID
	Kind     Kind
	PresetID string

	Image *image.RGBA
	// JPEG is set for captures only.
	JPEG []byte
	// Stored reports whether the JPEG was saved to the gallery store.
	Stored bool

	Elapsed time.Duration
}

type job struct {
	id     uuid.UUID
	kind   Kind
	img    image.Image
	preset preset.Preset

	done chan struct{}
	res  Result
	err  error
}

// Option configures a Queue.
type Option func(*Queue)

// WithStore saves captured stills to s.
func WithStore(s GalleryStore) Option {
	return func(q *Queue) { q.store = s }
}

// WithJPEGQuality sets the encoder quality, 1 to 100.
func WithJPEGQuality(quality int) Option {
	return func(q *Queue) {
		if quality >= 1 && quality <= 100 {
			q.quality = quality
		}
	}
}

// WithDepth bounds the number of pending jobs.
func WithDepth(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.depth = n
		}
	}
}

// WithRetain bounds the finished results kept for Wait. When more are
// waiting to be collected, the oldest expire.
func WithRetain(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.retain = n
		}
	}
}

// Queue is a serial background job queue. It is safe for concurrent use.
//
// Every job should be collected with Wait. Finished results nobody waits
// for are kept up to the WithRetain limit, oldest first out.
type Queue struct {
	engine  *filmlook.Engine
	store   GalleryStore
	quality int
	depth   int
	retain  int

	mu     sync.Mutex // guards jobs map and sends against Close
	jobs   map[uuid.UUID]*job
	// finished lists uncollected finished jobs, oldest first.
	finished []uuid.UUID
	queue    chan *job
	closed bool
	wg     sync.WaitGroup
}

// NewQueue creates a queue rendering with e and starts its goroutine.
func NewQueue(e *filmlook.Engine, opts ...Option) *Queue {
	q := &Queue{
		engine:  e,
		quality: DefaultJPEGQuality,
		depth:   DefaultDepth,
		retain:  DefaultRetain,
		jobs:    make(map[uuid.UUID]*job),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.queue = make(chan *job, q.depth)
	q.wg.Add(1)
	go q.run()
	return q
}

// Capture enqueues a full-quality render of img. The preset is copied.
func (q *Queue) Capture(img image.Image, p preset.Preset) (uuid.UUID, error) {
	return q.submit(KindCapture, img, p)
}

// GalleryPreview enqueues a thumbnail render of img.
func (q *Queue) GalleryPreview(img image.Image, p preset.Preset) (uuid.UUID, error) {
	return q.submit(KindGalleryPreview, img, p)
}

func (q *Queue) submit(kind Kind, img image.Image, p preset.Preset) (uuid.UUID, error) {
	if img == nil {
		return uuid.Nil, filmlook.ErrNilImage
	}
	j := &job{id: uuid.New(), kind: kind, img: img, preset: p.Clone(), done: make(chan struct{})}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return uuid.Nil, ErrClosed
	}
	select {
	case q.queue <- j:
	default:
		return uuid.Nil, fmt.Errorf("%w: %d pending", ErrQueueFull, len(q.queue))
	}
	q.jobs[j.id] = j
	filmlook.Logger().Debug("capture: job queued", "id", j.id, "kind", kind.String(), "preset", p.ID)
	return j.id, nil
}

// Wait blocks until job id finishes or ctx is done, and hands out its
// result. Each result is handed out once.
func (q *Queue) Wait(ctx context.Context, id uuid.UUID) (Result, error) {
	q.mu.Lock()
	j, ok := q.jobs[id]
	q.mu.Unlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-j.done:
	}

	q.mu.Lock()
	_, still := q.jobs[id]
	delete(q.jobs, id)
	if i := slices.Index(q.finished, id); i >= 0 {
		q.finished = slices.Delete(q.finished, i, i+1)
	}
	q.mu.Unlock()
	if !still {
		return Result{}, fmt.Errorf("%w: %s already collected or expired", ErrUnknownJob, id)
	}
	return j.res, j.err
}

// Pending returns the number of submitted jobs whose result has not been
// collected.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close stops accepting jobs and waits for the queued ones to finish.
// Their results stay available to Wait.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for j := range q.queue {
		start := time.Now()
		j.res, j.err = q.process(j)
		j.res.Elapsed = time.Since(start)

		log := filmlook.Logger()
		if j.err != nil {
			log.Warn("capture: job failed", "id", j.id, "kind", j.kind.String(), "err", j.err)
		} else {
			log.Info("capture: job done", "id", j.id, "kind", j.kind.String(), "elapsed", j.res.Elapsed)
		}
		j.img = nil
		close(j.done)
		q.retire(j.id)
	}
}

func (q *Queue) process(j *job) (Result, error) {
	res := Result{ID: j.id, Kind: j.kind, PresetID: j.preset.ID}
	if j.kind == KindGalleryPreview {
		img, err := q.engine.ApplyFilterPreview(j.img, j.preset)
		if err != nil {
			return res, fmt.Errorf("capture: gallery preview %s: %w", j.id, err)
		}
		res.Image = img
		return res, nil
	}

	img, err := q.engine.ApplyFilter(j.img, j.preset)
	if err != nil {
		return res, fmt.Errorf("capture: render %s: %w", j.id, err)
	}
	data, err := EncodeJPEG(img, q.quality)
	if err != nil {
		return res, fmt.Errorf("capture: encode %s: %w", j.id, err)
	}
	if q.store != nil {
		if err := q.store.Save(context.Background(), j.id.String(), data); err != nil {
			return res, fmt.Errorf("capture: store %s: %w", j.id, err)
		}
		res.Stored = true
	}
	res.Image, res.JPEG = img, data
	return res, nil
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// retire records a finished job and expires the oldest uncollected results
// beyond the retain limit.
func (q *Queue) retire(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[id]; !ok {
		return
	}
	q.finished = append(q.finished, id)
	for len(q.finished) > q.retain {
		old := q.finished[0]
		q.finished = q.finished[1:]
		delete(q.jobs, old)
		filmlook.Logger().Warn("capture: result expired uncollected", "id", old)
	}
}
