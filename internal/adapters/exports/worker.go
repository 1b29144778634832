package exports

import (
	"auditcore/internal/blob"
	"auditcore/internal/session"
	"auditcore/pkg/domain"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultQueueSize bounds the pending jobs of a worker.
	DefaultQueueSize = 32
	// DefaultRetention is how long a finished job and its artifact are kept.
	DefaultRetention = time.Hour
)

// JobStatus enumerates the lifecycle of an export job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

var (
	// ErrQueueFull is returned when no more jobs can be accepted.
	ErrQueueFull = errors.New("export queue full")
	// ErrNotReady is returned when downloading a job that has no artifact.
	ErrNotReady = errors.New("export not ready")
)

// Job tracks one asynchronous export.
type Job struct {
	ID          string     `json:"id"`
	AuditID     string     `json:"audit_id"`
	Format      Format     `json:"format"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	Key         string     `json:"-"`
	Size        int64      `json:"size_bytes,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (j *Job) copy() Job {
	out := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// ArtifactKey returns the blob key of a job's artifact.
func ArtifactKey(jobID, filename string) string {
	return path.Join("exports", jobID, filename)
}

// Worker runs export jobs in the background and stores their artifacts in
// the blob store.
type Worker struct {
	gen       *Generator
	blobs     blob.Store
	logger    *zap.Logger
	now       func() time.Time
	retention time.Duration

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithQueueSize overrides the queue capacity.
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan string, n)
		}
	}
}

// WithRetention sets how long finished jobs stay downloadable.
func WithRetention(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.retention = d
		}
	}
}

// WithWorkerClock overrides the job timestamp source.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWorker constructs an export worker.
func NewWorker(gen *Generator, blobs blob.Store, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		gen:    gen,
		blobs:  blobs,
		logger: zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
		retention: DefaultRetention,
		queue:     make(chan string, DefaultQueueSize),
		jobs:      make(map[string]*Job),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing export jobs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop stops taking jobs off the queue and waits for the running one.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	sweep := time.NewTicker(w.retention)
	defer sweep.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-sweep.C:
			w.prune(w.ctx)
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// prune forgets finished jobs older than the retention and deletes their
// artifacts. Queued and running jobs are kept.
func (w *Worker) prune(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)
	var expired []Job
	w.mu.Lock()
	for id, job := range w.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			expired = append(expired, job.copy())
			delete(w.jobs, id)
		}
	}
	w.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for _, job := range expired {
		if job.Key == "" {
			continue
		}
		if _, err := w.blobs.Delete(ctx, job.Key); err != nil {
			w.logger.Warn("export artifact cleanup failed",
				zap.String("job_id", job.ID),
				zap.String("key", job.Key),
				zap.Error(err))
		}
	}
	if len(expired) > 0 {
		w.logger.Debug("expired exports pruned", zap.Int("count", len(expired)))
	}
}

// Enqueue schedules an export of an audit visible to the caller and returns
// the queued job.
func (w *Worker) Enqueue(ctx context.Context, auditID string, format Format) (Job, error) {
	w.prune(ctx)
	art, err := w.gen.Describe(ctx, auditID, format)
	if err != nil {
		return Job{}, err
	}
	now := w.now()
	job := &Job{
		ID:          uuid.NewString(),
		AuditID:     auditID,
		Format:      format,
		Status:      JobQueued,
		Filename:    art.Filename,
		ContentType: art.ContentType,
		RequestedBy: session.UserID(ctx),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[job.ID] = job
	snapshot := job.copy()
	w.mu.Unlock()

	select {
	case w.queue <- job.ID:
	default:
		w.mu.Lock()
		delete(w.jobs, job.ID)
		w.mu.Unlock()
		return Job{}, ErrQueueFull
	}
	w.logger.Info("export queued",
		zap.String("job_id", job.ID),
		zap.String("audit_id", auditID),
		zap.String("format", string(format)))
	return snapshot, nil
}

// Get returns a snapshot of a job requested by the caller. Jobs past their
// retention are not found.
func (w *Worker) Get(ctx context.Context, id string) (Job, error) {
	w.prune(ctx)
	w.mu.RLock()
	job, ok := w.jobs[id]
	var snapshot Job
	if ok {
		snapshot = job.copy()
	}
	w.mu.RUnlock()
	if !ok || !session.CanAccess(ctx, snapshot.RequestedBy) {
		return Job{}, fmt.Errorf("export %q: %w", id, domain.ErrNotFound)
	}
	return snapshot, nil
}

// Open returns a finished job and a reader over its artifact.
func (w *Worker) Open(ctx context.Context, id string) (Job, io.ReadCloser, error) {
	job, err := w.Get(ctx, id)
	if err != nil {
		return Job{}, nil, err
	}
	if job.Status != JobSucceeded {
		return job, nil, fmt.Errorf("export %q is %s: %w", id, job.Status, ErrNotReady)
	}
	_, rc, err := w.blobs.Get(ctx, job.Key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return Job{}, nil, fmt.Errorf("export %q artifact: %w", id, domain.ErrNotFound)
		}
		return Job{}, nil, err
	}
	return job, rc, nil
}

// process runs one job. A started job is never cancelled by Stop.
func (w *Worker) process(id string) {
	w.mu.RLock()
	job, ok := w.jobs[id]
	var snapshot Job
	if ok {
		snapshot = job.copy()
	}
	w.mu.RUnlock()
	if !ok {
		return
	}
	w.update(id, func(j *Job) { j.Status = JobRunning })

	ctx := context.WithoutCancel(w.ctx)
	var buf bytes.Buffer
	art, err := w.gen.Write(ctx, snapshot.AuditID, snapshot.Format, &buf)
	if err != nil {
		w.fail(id, fmt.Sprintf("render %s: %v", snapshot.Format, err))
		return
	}
	key := ArtifactKey(id, art.Filename)
	info, err := w.blobs.Put(ctx, key, bytes.NewReader(buf.Bytes()), blob.PutOptions{
		ContentType: art.ContentType,
		Metadata:    map[string]string{"audit-id": snapshot.AuditID, "format": string(snapshot.Format)},
	})
	if err != nil {
		w.fail(id, fmt.Sprintf("store artifact: %v", err))
		return
	}
	size := info.Size
	if size == 0 {
		size = int64(buf.Len())
	}
	w.update(id, func(j *Job) {
		now := j.UpdatedAt
		j.Status = JobSucceeded
		j.Error = ""
		j.Filename = art.Filename
		j.ContentType = art.ContentType
		j.Key = key
		j.Size = size
		j.CompletedAt = &now
	})
	w.logger.Info("export succeeded",
		zap.String("job_id", id),
		zap.String("audit_id", snapshot.AuditID),
		zap.String("key", key))
}

func (w *Worker) update(id string, mutate func(*Job)) {
	now := w.now()
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.UpdatedAt = now
		mutate(job)
	}
	w.mu.Unlock()
}

func (w *Worker) fail(id, reason string) {
	w.logger.Warn("export failed", zap.String("job_id", id), zap.String("error", reason))
	w.update(id, func(j *Job) {
		now := j.UpdatedAt
		j.Status = JobFailed
		j.Error = reason
		j.CompletedAt = &now
	})
}
