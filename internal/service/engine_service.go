package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/pkg/config"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type contentStore interface {
	Load(ctx context.Context) ([]models.ContentItem, error)
	UpsertItem(ctx context.Context, item *models.ContentItem, snapshot []models.ContentItem) error
	DeleteItem(ctx context.Context, id string, snapshot []models.ContentItem) error
}

type uploaderDirectory interface {
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error)
}

type rewarder interface {
	AddXP(ctx context.Context, userID string, amount int) error
	RewardKarma(ctx context.Context, userID string, amount int) error
}

type contentPublisher interface {
	Publish(items []models.ContentItem)
}

// EngineService owns the content lifecycle: submission, votes,
// threshold transitions, privileged overrides and the reward side
// effects they trigger. All mutations run under one mutex; the critical
// section spans the in-memory read-modify-write and the durable write,
// and the post-mutation snapshot is broadcast before the lock is
// released so subscribers observe snapshots in mutation order.
type EngineService struct {
	mu    sync.Mutex
	items []models.ContentItem // newest first

	store     contentStore
	users     uploaderDirectory
	ledger    rewarder
	bus       contentPublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.EngineConfig
}

// NewEngineService constructs the engine.
func NewEngineService(store contentStore, users uploaderDirectory, ledger rewarder, bus contentPublisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg config.EngineConfig) *EngineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.VerifyThreshold <= 0 {
		cfg.VerifyThreshold = 5
	}
	if cfg.RejectThreshold <= 0 {
		cfg.RejectThreshold = 5
	}
	if cfg.AdminID == "" {
		cfg.AdminID = "ADMIN"
	}
	if cfg.AdminBranch == "" {
		cfg.AdminBranch = "Central Administration"
	}
	return &EngineService{
		store:     store,
		users:     users,
		ledger:    ledger,
		bus:       bus,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Init loads the durable collection into memory and publishes the
// initial snapshot. Must be called once before serving traffic.
func (s *EngineService) Init(ctx context.Context) error {
	items, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	snapshot := s.items
	s.mu.Unlock()
	s.publish(snapshot)
	return nil
}

// AddItem validates a submission draft, freezes the uploader's branch,
// persists the new item and grants the flat submission XP.
func (s *EngineService) AddItem(ctx context.Context, req dto.CreateContentRequest) (*models.ContentItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subject and title are required")
	}
	contentType := models.ContentType(req.Type)
	if !contentType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown content type")
	}
	if contentType.RequiresDeadline() && req.DeadlineDate == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline date is required for deadline and test submissions")
	}

	branch, err := s.resolveBranch(ctx, req.UploaderID)
	if err != nil {
		return nil, err
	}

	item := models.ContentItem{
		ID:             uuid.NewString(),
		SubjectID:      req.SubjectID,
		Title:          req.Title,
		Type:           contentType,
		Content:        req.Content,
		UploaderID:     req.UploaderID,
		UploaderBranch: branch,
		Timestamp:      time.Now().UTC(),
		Upvotes:        0,
		Downvotes:      0,
		IsVerified:     false,
		DeadlineDate:   req.DeadlineDate,
		VotedUsers:     pq.StringArray{},
	}
	item.SetFile(req.File)

	s.mu.Lock()
	next := make([]models.ContentItem, 0, len(s.items)+1)
	next = append(next, item)
	next = append(next, s.items...)
	if err := s.store.UpsertItem(ctx, &item, next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	next[0] = item // pick up the timestamp assigned on persist
	s.items = next
	s.publish(next)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSubmission(string(contentType))
	}

	// Flat submission reward, independent of verification. The admin
	// identity has no ledger row and is excluded, as in the old system.
	if req.UploaderID != s.cfg.AdminID {
		if err := s.ledger.AddXP(ctx, req.UploaderID, s.cfg.SubmitXP); err != nil {
			s.logger.Warn("submission xp grant failed", zap.String("uploader", req.UploaderID), zap.Error(err))
		}
	}

	return &item, nil
}

// DeleteItem removes an item when the requestor owns it or is
// privileged.
func (s *EngineService) DeleteItem(ctx context.Context, id, requestorID string, privileged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "content item not found")
	}
	if !privileged && s.items[idx].UploaderID != requestorID {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "only the uploader or an admin may delete this item")
	}

	next := s.without(idx)
	if err := s.store.DeleteItem(ctx, id, next); err != nil {
		return err
	}
	s.items = next
	s.publish(next)
	return nil
}

// Vote applies one up or down vote. Ordinary voters are limited to one
// vote per item; privileged voters are exempt and may push an item over
// a threshold with repeated votes. Rejection is checked before
// verification so an item crossing both thresholds in one call is
// deleted without a reward.
func (s *EngineService) Vote(ctx context.Context, id string, direction models.VoteDirection, voterID string, role models.UserRole) error {
	if !direction.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "vote direction must be up or down")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		// Voting on a just-rejected item is expected; stay silent.
		return nil
	}

	item := s.items[idx].Clone()
	if !role.Privileged() && item.HasVoted(voterID) {
		return nil
	}

	if direction == models.VoteUp {
		item.Upvotes++
	} else {
		item.Downvotes++
	}
	// Appended unconditionally: the log gates ordinary users only, so
	// privileged repeat votes may duplicate entries.
	item.VotedUsers = append(item.VotedUsers, voterID)

	if item.Downvotes >= s.cfg.RejectThreshold {
		next := s.without(idx)
		if err := s.store.DeleteItem(ctx, id, next); err != nil {
			return err
		}
		s.items = next
		s.publish(next)
		if s.metrics != nil {
			s.metrics.RecordVote(string(direction))
			s.metrics.RecordRejection(false)
		}
		return nil
	}

	crossed := false
	if !item.IsVerified && item.Upvotes >= s.cfg.VerifyThreshold {
		item.IsVerified = true
		crossed = true
	}

	next := s.withReplaced(idx, item)
	if err := s.store.UpsertItem(ctx, &item, next); err != nil {
		return err
	}
	s.items = next
	s.publish(next)

	// Counted only once the write is durable, like the outcome metrics.
	if s.metrics != nil {
		s.metrics.RecordVote(string(direction))
	}

	if crossed {
		s.reward(ctx, item.UploaderID)
		if s.metrics != nil {
			s.metrics.RecordVerification(false)
		}
	}
	return nil
}

// ForceVerify marks an item verified regardless of votes, clamping the
// displayed upvotes to the threshold. Idempotent: a second call on a
// verified item is a no-op and never re-fires the reward.
func (s *EngineService) ForceVerify(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "content item not found")
	}
	if s.items[idx].IsVerified {
		return nil
	}

	item := s.items[idx].Clone()
	item.IsVerified = true
	if item.Upvotes < s.cfg.VerifyThreshold {
		item.Upvotes = s.cfg.VerifyThreshold
	}

	next := s.withReplaced(idx, item)
	if err := s.store.UpsertItem(ctx, &item, next); err != nil {
		return err
	}
	s.items = next
	s.publish(next)

	s.reward(ctx, item.UploaderID)
	if s.metrics != nil {
		s.metrics.RecordVerification(true)
	}
	return nil
}

// ForceReject hard deletes an item regardless of vote counts. No reward
// side effects. Role enforcement happens at the route layer.
func (s *EngineService) ForceReject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "content item not found")
	}

	next := s.without(idx)
	if err := s.store.DeleteItem(ctx, id, next); err != nil {
		return err
	}
	s.items = next
	s.publish(next)
	if s.metrics != nil {
		s.metrics.RecordRejection(true)
	}
	return nil
}

// Snapshot returns the current collection, newest first. The returned
// slice is never mutated afterwards; mutations replace it wholesale.
func (s *EngineService) Snapshot() []models.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Item looks up a single content item by id.
func (s *EngineService) Item(id string) (models.ContentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return models.ContentItem{}, false
	}
	return s.items[idx], true
}

// Feed filters the snapshot for the main feed, preserving the newest
// first ordering.
func (s *EngineService) Feed(filter models.FeedFilter) []models.ContentItem {
	now := time.Now()
	out := []models.ContentItem{}
	for _, item := range s.Snapshot() {
		if filter.SubjectID != "" && item.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Branch != "" && item.UploaderBranch != filter.Branch {
			continue
		}
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter.VerifiedOnly && !item.IsVerified {
			continue
		}
		if filter.UpcomingOnly && !upcoming(item, now) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Directory lists a subject's items in chronological order, oldest
// first, for the subject detail view.
func (s *EngineService) Directory(subjectID string) []models.ContentItem {
	items := s.Feed(models.FeedFilter{SubjectID: subjectID})
	out := make([]models.ContentItem, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}

func (s *EngineService) resolveBranch(ctx context.Context, uploaderID string) (string, error) {
	if uploaderID == s.cfg.AdminID {
		return s.cfg.AdminBranch, nil
	}
	user, err := s.users.FindByEnrollmentID(ctx, uploaderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "Unknown", nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to resolve uploader branch")
	}
	return user.Branch, nil
}

// reward fires the one verification reward event. Ledger failures are
// logged rather than rolled back; the verification itself already
// persisted and the guard on isVerified prevents a retry double-fire.
func (s *EngineService) reward(ctx context.Context, uploaderID string) {
	if err := s.ledger.RewardKarma(ctx, uploaderID, s.cfg.KarmaReward); err != nil {
		s.logger.Warn("karma reward failed", zap.String("uploader", uploaderID), zap.Error(err))
	}
	if err := s.ledger.AddXP(ctx, uploaderID, s.cfg.VerifyXP); err != nil {
		s.logger.Warn("verification xp grant failed", zap.String("uploader", uploaderID), zap.Error(err))
	}
}

func (s *EngineService) publish(snapshot []models.ContentItem) {
	if s.bus != nil {
		s.bus.Publish(snapshot)
	}
}

func (s *EngineService) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *EngineService) without(idx int) []models.ContentItem {
	next := make([]models.ContentItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	return next
}

func (s *EngineService) withReplaced(idx int, item models.ContentItem) []models.ContentItem {
	next := make([]models.ContentItem, len(s.items))
	copy(next, s.items)
	next[idx] = item
	return next
}

// upcoming reports whether the item's deadline has not yet passed,
// comparing against the end of the deadline day in local time.
func upcoming(item models.ContentItem, now time.Time) bool {
	if item.DeadlineDate == "" {
		return false
	}
	day, err := time.ParseInLocation("2006-01-02", item.DeadlineDate, time.Local)
	if err != nil {
		return false
	}
	endOfDay := day.Add(24*time.Hour - time.Nanosecond)
	return endOfDay.After(now)
}
