package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"mytown-issues/models"
	"mytown-issues/storage"
	"mytown-issues/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPartialCoordinates rejects a report with only one of lat and lng.
var ErrPartialCoordinates = errors.New("lat and lng must be given together")

// ValidationError lists the required report fields that were left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Photo is an uploaded image held in memory until the submission uploads it.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Report is a citizen's issue report as entered on the form.
type Report struct {
	Title           string
	Category        string
	Location        string
	Description     string
	Priority        string
	Latitude        *float64
	Longitude       *float64
	ReporterContact *string
	CreatedBy       string
	Photo           *Photo
}

// Validate checks required fields and enumerations and returns the issue the
// report will become.
func (r Report) Validate() (models.Issue, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", r.Title},
		{"category", r.Category},
		{"location", r.Location},
		{"description", r.Description},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return models.Issue{}, &ValidationError{Fields: missing}
	}

	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return models.Issue{}, err
	}
	priority, err := models.ParsePriority(r.Priority)
	if err != nil {
		return models.Issue{}, err
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return models.Issue{}, ErrPartialCoordinates
	}

	return models.Issue{
		Title:           strings.TrimSpace(r.Title),
		Category:        category,
		Location:        strings.TrimSpace(r.Location),
		Description:     strings.TrimSpace(r.Description),
		Status:          models.Pending,
		Priority:        priority,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		ReporterContact: r.ReporterContact,
		CreatedBy:       r.CreatedBy,
	}, nil
}

// SubmissionState is the progress of an asynchronous report submission.
type SubmissionState string

const (
	StatePending   SubmissionState = "pending"
	StateSucceeded SubmissionState = "succeeded"
	StateFailed    SubmissionState = "failed"
	StateCancelled SubmissionState = "cancelled"
)

// Submission tracks one report on its way into the issue store.
type Submission struct {
	ID        string
	Owner     string
	CreatedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	state      SubmissionState
	issue      models.Issue
	err        error
	finishedAt time.Time
}

// SubmissionView is the JSON form of a Submission.
type SubmissionView struct {
	ID        string          `json:"id"`
	State     SubmissionState `json:"state"`
	Issue     *models.Issue   `json:"issue,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Done is closed once the submission has finished in any state.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission finishes or ctx ends. Abandoning the wait
// does not cancel the submission.
func (s *Submission) Wait(ctx context.Context) (models.Issue, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return models.Issue{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue, s.err
}

// State returns the current state.
func (s *Submission) State() SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Submission) View() SubmissionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SubmissionView{ID: s.ID, State: s.state, CreatedAt: s.CreatedAt}
	if s.state == StateSucceeded {
		issue := s.issue.Clone()
		v.Issue = &issue
	}
	if s.err != nil {
		v.Error = s.err.Error()
	}
	return v
}

func (s *Submission) finish(issue models.Issue, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		s.state = StateSucceeded
		s.issue = issue
	case errors.Is(err, context.Canceled):
		s.state = StateCancelled
		s.err = err
	default:
		s.state = StateFailed
		s.err = err
	}
	s.finishedAt = time.Now()
	close(s.done)
}

// SubmitterConfig tunes a Submitter.
type SubmitterConfig struct {
	// Delay is waited before a submission is processed.
	Delay time.Duration
	// Retention is how long finished submissions stay available for polling.
	Retention time.Duration
}

// Submitter accepts reports and lands them in the issue store in the
// background: optional photo upload first, then the append.
type Submitter struct {
	issues store.IssueStore
	photos storage.PhotoStore
	logger *zap.Logger
	cfg    SubmitterConfig

	mu          sync.Mutex
	submissions map[string]*Submission
	wg          sync.WaitGroup
}

func NewSubmitter(issues store.IssueStore, photos storage.PhotoStore, logger *zap.Logger, cfg SubmitterConfig) *Submitter {
	if photos == nil {
		photos = storage.Disabled{}
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	return &Submitter{
		issues:      issues,
		photos:      photos,
		logger:      logger,
		cfg:         cfg,
		submissions: make(map[string]*Submission),
	}
}

// Submit validates report and starts processing it. The submission runs until
// it finishes, ctx is cancelled, or Cancel is called with its id.
func (s *Submitter) Submit(ctx context.Context, report Report) (*Submission, error) {
	issue, err := report.Validate()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := &Submission{
		ID:        uuid.NewString(),
		Owner:     report.CreatedBy,
		CreatedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StatePending,
	}

	s.mu.Lock()
	s.prune(sub.CreatedAt)
	s.submissions[sub.ID] = sub
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		created, err := s.process(runCtx, issue, report.Photo)
		sub.finish(created, err)
		if err != nil {
			s.logger.Warn("Report submission did not complete",
				zap.String("submission", sub.ID), zap.Error(err))
			return
		}
		s.logger.Info("Report submitted",
			zap.String("submission", sub.ID), zap.String("issue", created.ID))
	}()

	return sub, nil
}

func (s *Submitter) process(ctx context.Context, issue models.Issue, photo *Photo) (models.Issue, error) {
	if s.cfg.Delay > 0 {
		timer := time.NewTimer(s.cfg.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return models.Issue{}, ctx.Err()
		}
	}

	var objectName string
	if photo != nil && len(photo.Data) > 0 {
		objectName = "reports/" + uuid.NewString() + strings.ToLower(path.Ext(photo.Filename))
		url, err := s.photos.Put(ctx, objectName, photo.ContentType, bytes.NewReader(photo.Data), int64(len(photo.Data)))
		if err != nil {
			return models.Issue{}, fmt.Errorf("upload photo: %w", err)
		}
		issue.ImageURL = &url
	}

	if err := ctx.Err(); err != nil {
		s.discardPhoto(objectName)
		return models.Issue{}, err
	}

	created, err := s.issues.Add(ctx, issue)
	if err != nil {
		s.discardPhoto(objectName)
		return models.Issue{}, fmt.Errorf("store issue: %w", err)
	}
	return created, nil
}

func (s *Submitter) discardPhoto(objectName string) {
	if objectName == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.photos.Delete(ctx, objectName); err != nil {
		s.logger.Warn("Failed to remove orphaned photo", zap.String("object", objectName), zap.Error(err))
	}
}

// Lookup returns a submission that is pending or finished within the
// retention window.
func (s *Submitter) Lookup(id string) (*Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(time.Now())
	sub, ok := s.submissions[id]
	return sub, ok
}

// Cancel aborts a pending submission. It reports whether the id was known;
// finished submissions are unaffected.
func (s *Submitter) Cancel(id string) bool {
	sub, ok := s.Lookup(id)
	if ok {
		sub.cancel()
	}
	return ok
}

// Close waits for in-flight submissions to finish.
func (s *Submitter) Close() {
	s.wg.Wait()
}

// prune drops finished submissions past retention. Callers hold s.mu.
func (s *Submitter) prune(now time.Time) {
	for id, sub := range s.submissions {
		sub.mu.Lock()
		expired := !sub.finishedAt.IsZero() && now.Sub(sub.finishedAt) > s.cfg.Retention
		sub.mu.Unlock()
		if expired {
			delete(s.submissions, id)
		}
	}
}
