package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
)

var (
	ErrOrchestratorClosed = errors.New("orchestrator is closed")
	ErrNoURLs             = errors.New("job requires at least one url")
	ErrTooManyURLs        = errors.New("too many urls for one job")
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	URL       string `json:"url,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`

	// For result
	Result *JobResult `json:"result,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// JobResult is the outcome of one URL in a scrape job. Content is omitted
// from job listings; fetch it through /search or the cache.
type JobResult struct {
	URL           string `json:"url"`
	FinalURL      string `json:"final_url,omitempty"`
	Title         string `json:"title,omitempty"`
	Source        string `json:"source,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
	ContentLength int    `json:"content_length"`
	Changed       bool   `json:"changed"`
	Error         string `json:"error,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
}

type Job struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"` // "scrape"
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Results   []JobResult   `json:"results"`
	Events    chan JobEvent `json:"-"`
}

// BatchScraper is the part of the scraper a job needs.
type BatchScraper interface {
	ScrapeAll(ctx context.Context, urls []string, concurrency int, onResult func(scraper.BatchResult)) []scraper.BatchResult
}

// Orchestrator runs scrape jobs in the background and tracks their state.
type Orchestrator struct {
	cfg     JobsConfig
	scraper BatchScraper
	logger  logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	jobsMu     sync.Mutex
	closed     bool
	running    sync.WaitGroup
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

func NewOrchestrator(cfg JobsConfig, s BatchScraper, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:        cfg,
		scraper:    s,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
}

func (o *Orchestrator) emitJobEvent(job *Job, ev JobEvent) {
	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

// StartScrapeJob scrapes urls in the background. The job ends when ctx is
// canceled, CancelJob is called, or the orchestrator is closed. concurrency
// is clamped to [1, MaxConcurrency]; 0 means MaxConcurrency.
func (o *Orchestrator) StartScrapeJob(ctx context.Context, urls []string, concurrency int) (*Job, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	if o.cfg.MaxURLs > 0 && len(urls) > o.cfg.MaxURLs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyURLs, len(urls), o.cfg.MaxURLs)
	}
	if concurrency <= 0 || concurrency > o.cfg.MaxConcurrency {
		concurrency = o.cfg.MaxConcurrency
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      "scrape",
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Total:     len(urls),
		Results:   make([]JobResult, len(urls)),
		// Room for every event so a slow reader never loses the terminal one.
		Events: make(chan JobEvent, len(urls)+4),
	}
	for i, u := range urls {
		job.Results[i].URL = u
	}

	jobCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(o.ctx, cancel)

	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		stop()
		cancel()
		return nil, ErrOrchestratorClosed
	}
	o.pruneLocked(time.Now().UTC())
	o.jobs[job.ID] = job
	o.jobCancels[job.ID] = cancel
	o.running.Add(1)
	snapshot := job.snapshot()
	o.jobsMu.Unlock()

	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending})
	o.logger.Info("scrape job started",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "urls", Value: len(urls)},
		logging.Field{Key: "concurrency", Value: concurrency})

	go func() {
		defer o.running.Done()
		defer func() {
			stop()
			cancel()
			o.jobsMu.Lock()
			job.EndedAt = time.Now().UTC()
			delete(o.jobCancels, job.ID)
			o.jobsMu.Unlock()

			// Close events channel so websocket loop can terminate cleanly
			close(job.Events)
		}()

		o.jobsMu.Lock()
		job.Status = JobRunning
		o.jobsMu.Unlock()
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning})

		o.scraper.ScrapeAll(jobCtx, urls, concurrency, func(br scraper.BatchResult) {
			res := toJobResult(br)

			o.jobsMu.Lock()
			job.Results[br.Index] = res
			job.Processed++
			if br.Err == nil {
				job.Succeeded++
			}
			processed := job.Processed
			o.jobsMu.Unlock()

			o.emitJobEvent(job, JobEvent{
				JobID:     job.ID,
				Type:      JobEventProgress,
				URL:       br.URL,
				Error:     res.Error,
				Processed: processed,
				Total:     len(urls),
				Result:    &res,
			})
		})

		o.jobsMu.Lock()
		succeeded := job.Succeeded
		o.jobsMu.Unlock()

		select {
		case <-jobCtx.Done():
			o.finish(job, JobCanceled, jobCtx.Err().Error())
		default:
			if succeeded == 0 {
				o.finish(job, JobFailed, fmt.Sprintf("all %d urls failed", len(urls)))
				return
			}
			o.finish(job, JobDone, "")
		}
	}()

	return snapshot, nil
}

func (o *Orchestrator) finish(job *Job, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	job.Status = status
	job.Error = errMsg
	processed, succeeded := job.Processed, job.Succeeded
	o.jobsMu.Unlock()

	if status == JobDone {
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventResult, Processed: processed, Total: job.Total})
	}
	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: status, Error: errMsg})

	o.logger.Info("scrape job finished",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "status", Value: string(status)},
		logging.Field{Key: "succeeded", Value: succeeded},
		logging.Field{Key: "total", Value: job.Total})
}

func toJobResult(br scraper.BatchResult) JobResult {
	res := JobResult{URL: br.URL}
	if br.Err != nil {
		res.Error = br.Err.Error()
		res.ErrorKind = string(scraper.KindOf(br.Err))
		return res
	}
	r := br.Result
	res.FinalURL = r.FinalURL
	res.Title = r.Title
	res.Source = r.Source
	res.StatusCode = r.StatusCode
	res.ContentLength = len([]rune(r.Content))
	res.Changed = r.Changes != nil && r.Changes.Changed
	return res
}

// GetJob returns a copy of the job, or nil if it is unknown.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	return job.snapshot()
}

// ListJobs returns copies of all retained jobs, oldest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	o.pruneLocked(time.Now().UTC())
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j.snapshot())
	}
	o.jobsMu.Unlock()

	slices.SortFunc(out, func(a, b *Job) int { return a.StartedAt.Compare(b.StartedAt) })
	return out
}

// CancelJob stops a running job. It reports whether the job was running.
func (o *Orchestrator) CancelJob(jobID string) bool {
	o.jobsMu.Lock()
	cancel, ok := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Close cancels every running job and rejects new ones.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	o.closed = true
	o.jobsMu.Unlock()
	o.cancel()
}

// Wait blocks until every job goroutine has returned or ctx is done. Call it
// after Close so no new jobs start.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pruneLocked drops finished jobs older than the retention window.
func (o *Orchestrator) pruneLocked(now time.Time) {
	if o.cfg.Retention <= 0 {
		return
	}
	for id, j := range o.jobs {
		if !j.EndedAt.IsZero() && now.Sub(j.EndedAt) > o.cfg.Retention {
			delete(o.jobs, id)
		}
	}
}

// snapshot copies j for readers outside the lock. Events is shared.
func (j *Job) snapshot() *Job {
	cp := *j
	cp.Results = slices.Clone(j.Results)
	return &cp
}
