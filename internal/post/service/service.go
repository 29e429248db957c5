package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogotex/postflow/internal/history"
	"github.com/gogotex/postflow/internal/post"
	"github.com/gogotex/postflow/internal/post/repository"
	"github.com/gogotex/postflow/pkg/logger"
	"github.com/gogotex/postflow/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the post kept changing underneath the update.
	ErrConflict = repository.ErrConflict
)

// Service defines the post operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, title, text string) (*post.Record, error)
	Get(ctx context.Context, id string) (*post.Record, error)
	List(ctx context.Context) ([]*post.Record, error)
	AppendText(ctx context.Context, id, text string) (*post.Record, error)
	RequestReview(ctx context.Context, id, actor string) (*Transition, error)
	Approve(ctx context.Context, id, actor string) (*Transition, error)
	Apply(ctx context.Context, id, actor string, action post.Action) (*Transition, error)
	VisibleContent(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]history.Entry, error)
}

// Transition reports the effect of a lifecycle action on one post.
type Transition struct {
	ID      string
	Action  post.Action
	From    post.State
	To      post.State
	Changed bool
}

// Archiver keeps a copy of published posts. Archive replaces any earlier
// copy; Remove of a post that was never archived is not an error.
type Archiver interface {
	Archive(ctx context.Context, postID, content string) error
	Remove(ctx context.Context, postID string) error
}

// Option configures the service.
type Option func(*postService)

// WithHistory records effective transitions in rec.
func WithHistory(rec history.Recorder) Option {
	return func(s *postService) {
		if rec != nil {
			s.history = rec
		}
	}
}

// WithArchiver keeps a in sync with published posts.
func WithArchiver(a Archiver) Option {
	return func(s *postService) { s.archiver = a }
}

// WithClock overrides the clock used for history timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *postService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New returns a Service on top of repo.
func New(repo repository.Repository, opts ...Option) Service {
	s := &postService{repo: repo, history: history.Nop{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMemoryService returns a Service backed by the in-memory repository and
// an in-memory history.
func NewMemoryService(opts ...Option) Service {
	opts = append([]Option{WithHistory(history.NewMemoryRecorder())}, opts...)
	return New(repository.NewMemoryRepo(), opts...)
}

// NewMongoService returns a Service storing posts in col and history in hist.
// Caller is responsible for creating the collections (and client).
func NewMongoService(col, hist *mongo.Collection, opts ...Option) Service {
	opts = append([]Option{WithHistory(history.NewMongoRecorder(hist))}, opts...)
	return New(repository.NewMongoRepo(col), opts...)
}

type postService struct {
	repo     repository.Repository
	history  history.Recorder
	archiver Archiver
	now      func() time.Time
	// archiveLocks serializes archive writes per post id.
	archiveLocks sync.Map
}

func (s *postService) Create(ctx context.Context, title, text string) (*post.Record, error) {
	p := post.New()
	p.AddText(text)
	rec := &post.Record{Title: title}
	rec.Store(p)
	if _, err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	metrics.PostsCreated.Inc()
	logger.Debugf("post %s created (title=%q)", rec.ID, title)
	return rec, nil
}

func (s *postService) Get(ctx context.Context, id string) (*post.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr(id, err)
	}
	return rec, nil
}

func (s *postService) List(ctx context.Context) ([]*post.Record, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return list, nil
}

func (s *postService) AppendText(ctx context.Context, id, text string) (*post.Record, error) {
	rec, err := s.repo.Update(ctx, id, func(r *post.Record) error {
		p := r.Post()
		p.AddText(text)
		r.Store(p)
		return nil
	})
	if err != nil {
		return nil, s.mapErr(id, err)
	}
	if rec.State == post.Published.String() {
		s.syncArchive(ctx, id)
	}
	return rec, nil
}

func (s *postService) RequestReview(ctx context.Context, id, actor string) (*Transition, error) {
	return s.apply(ctx, id, actor, post.ActionRequestReview)
}

func (s *postService) Approve(ctx context.Context, id, actor string) (*Transition, error) {
	return s.apply(ctx, id, actor, post.ActionApprove)
}

// Apply runs a named lifecycle action. Unknown actions change nothing.
func (s *postService) Apply(ctx context.Context, id, actor string, action post.Action) (*Transition, error) {
	return s.apply(ctx, id, actor, action)
}

// apply runs action inside the repository's per-post update so two callers
// can never both move the post out of the same state. The history entry is
// stamped inside the update and ordered by the committed version.
func (s *postService) apply(ctx context.Context, id, actor string, action post.Action) (*Transition, error) {
	var from, to post.State
	var at time.Time
	rec, err := s.repo.Update(ctx, id, func(r *post.Record) error {
		p := r.Post()
		from, to = p.Apply(action)
		r.Store(p)
		at = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, s.mapErr(id, err)
	}

	log := logger.WithField("post", id)
	t := &Transition{ID: id, Action: action, From: from, To: to, Changed: from != to}
	if !t.Changed {
		metrics.Transitions.WithLabelValues(string(action), from.String(), to.String(), "noop").Inc()
		log.Debugf("%s ignored in state %s", action, from)
		return t, nil
	}
	metrics.Transitions.WithLabelValues(string(action), from.String(), to.String(), "changed").Inc()
	log.Infof("%s moved %s -> %s (actor=%s)", action, from, to, actor)

	entry := history.Entry{PostID: id, Seq: rec.Version, Action: string(action), From: from.String(), To: to.String(), Actor: actor, At: at}
	if err := s.history.Record(ctx, entry); err != nil {
		// the transition is committed; a missing audit line must not undo it
		log.Errorf("failed to record history: %v", err)
	}
	if to == post.Published {
		s.syncArchive(ctx, id)
	}
	return t, nil
}

// syncArchive writes the current content of a published post to the
// archive. Writes for one post are serialized and always re-read the post,
// so the last write carries the latest committed content.
func (s *postService) syncArchive(ctx context.Context, id string) {
	if s.archiver == nil {
		return
	}
	mu := s.archiveLock(id)
	mu.Lock()
	defer mu.Unlock()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		// deleted meanwhile; Delete removes the copy
		if !errors.Is(err, repository.ErrNotFound) {
			logger.WithField("post", id).Errorf("archive: reload failed: %v", err)
		}
		return
	}
	if rec.State != post.Published.String() {
		return
	}
	if err := s.archiver.Archive(ctx, id, rec.Content); err != nil {
		metrics.ArchiveFailures.Inc()
		logger.WithField("post", id).Errorf("archive failed: %v", err)
	}
}

func (s *postService) archiveLock(id string) *sync.Mutex {
	v, _ := s.archiveLocks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *postService) VisibleContent(ctx context.Context, id string) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.Post().Content(), nil
}

func (s *postService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapErr(id, err)
	}
	if s.archiver != nil {
		mu := s.archiveLock(id)
		mu.Lock()
		err := s.archiver.Remove(ctx, id)
		mu.Unlock()
		s.archiveLocks.Delete(id)
		if err != nil {
			metrics.ArchiveFailures.Inc()
			logger.WithField("post", id).Errorf("remove archived copy: %v", err)
		}
	}
	return nil
}

func (s *postService) History(ctx context.Context, id string) ([]history.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("post %s history: %w", id, err)
	}
	return entries, nil
}

func (s *postService) mapErr(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("post %s: %w", id, err)
}
