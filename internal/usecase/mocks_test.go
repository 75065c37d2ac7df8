package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

// memStore is an in-memory stand-in for the gorm repositories. It mirrors
// the store's contracts: append-only revisions, single-transition statuses,
// pointer advancement on approval, case-insensitive title uniqueness.
type memStore struct {
	entities        map[string]domain.Entity
	articles        map[string]domain.Article
	articleByEntity map[string]string
	overlays        map[string]domain.Overlay
	revisions       map[string]domain.Revision
	reviews         map[string]domain.ReviewRequest
	viewpoints      map[string]bool
	eras            map[string]bool
	chapters        map[string]bool
	roles           map[string]domain.Role

	audits      []domain.AuditEntry
	events      []domain.Event
	invalidated []string

	seq   int
	clock time.Time
}

func newMemStore() *memStore {
	return &memStore{
		entities:        map[string]domain.Entity{},
		articles:        map[string]domain.Article{},
		articleByEntity: map[string]string{},
		overlays:        map[string]domain.Overlay{},
		revisions:       map[string]domain.Revision{},
		reviews:         map[string]domain.ReviewRequest{},
		viewpoints:      map[string]bool{},
		eras:            map[string]bool{},
		chapters:        map[string]bool{},
		roles: map[string]domain.Role{
			"admin":    domain.RoleAdmin,
			"editor":   domain.RoleEditor,
			"reviewer": domain.RoleReviewer,
			"viewer":   domain.RoleViewer,
		},
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// --- EntityRepository ---

func (s *memStore) CreateWithArticle(ctx context.Context, entity domain.Entity, initialBody, summary, author string) (domain.Entity, domain.Article, domain.Revision, error) {
	for _, e := range s.entities {
		if e.WorkspaceID == entity.WorkspaceID && !e.Deleted() && strings.EqualFold(e.Title, entity.Title) {
			return domain.Entity{}, domain.Article{}, domain.Revision{}, domain.ConflictError{Reason: "title already taken: " + e.Title}
		}
	}

	entity.ID = s.nextID("ent")
	article := domain.Article{ID: s.nextID("art"), EntityID: entity.ID}

	now := s.tick()
	revision := domain.Revision{
		ID:            s.nextID("rev"),
		Target:        domain.BaseTarget(article.ID),
		Body:          initialBody,
		ChangeSummary: summary,
		Author:        author,
		CreatedAt:     now,
		Status:        domain.RevisionApproved,
		ApprovedBy:    &author,
		ApprovedAt:    &now,
	}
	article.BaseRevisionID = &revision.ID

	s.entities[entity.ID] = entity
	s.articles[article.ID] = article
	s.articleByEntity[entity.ID] = article.ID
	s.revisions[revision.ID] = revision
	return entity, article, revision, nil
}

func (s *memStore) Get(ctx context.Context, id string) (domain.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}
	return e, nil
}

func (s *memStore) GetArticle(ctx context.Context, articleID string) (domain.Article, error) {
	a, ok := s.articles[articleID]
	if !ok {
		return domain.Article{}, domain.NotFoundError{Resource: "article"}
	}
	return a, nil
}

func (s *memStore) GetArticleByEntity(ctx context.Context, entityID string) (domain.Article, error) {
	id, ok := s.articleByEntity[entityID]
	if !ok {
		return domain.Article{}, domain.NotFoundError{Resource: "article"}
	}
	return s.articles[id], nil
}

func (s *memStore) List(ctx context.Context, workspaceID string) ([]domain.Entity, error) {
	var out []domain.Entity
	for _, e := range s.entities {
		if e.WorkspaceID == workspaceID && !e.Deleted() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) Rename(ctx context.Context, entityID, newTitle string, addRedirectAlias bool) (domain.Entity, error) {
	entity, ok := s.entities[entityID]
	if !ok {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}
	for _, e := range s.entities {
		if e.ID != entityID && e.WorkspaceID == entity.WorkspaceID && !e.Deleted() && strings.EqualFold(e.Title, newTitle) {
			return domain.Entity{}, domain.ConflictError{Reason: "title already taken: " + e.Title}
		}
	}
	if addRedirectAlias {
		entity.Aliases = append(entity.Aliases, entity.Title)
	}
	entity.Title = newTitle
	s.entities[entityID] = entity
	return entity, nil
}

func (s *memStore) SetTags(ctx context.Context, entityID string, tags []string) error {
	entity, ok := s.entities[entityID]
	if !ok {
		return domain.NotFoundError{Resource: "entity"}
	}
	entity.Tags = tags
	s.entities[entityID] = entity
	return nil
}

func (s *memStore) SoftDelete(ctx context.Context, entityID string) error {
	entity, ok := s.entities[entityID]
	if !ok {
		return domain.NotFoundError{Resource: "entity"}
	}
	now := s.tick()
	entity.DeletedAt = &now
	s.entities[entityID] = entity
	return nil
}

func (s *memStore) Restore(ctx context.Context, entityID string) error {
	entity, ok := s.entities[entityID]
	if !ok {
		return domain.NotFoundError{Resource: "entity"}
	}
	entity.DeletedAt = nil
	s.entities[entityID] = entity
	return nil
}

// --- RevisionRepository ---

func (s *memStore) currentPointer(target domain.RevisionTarget) *string {
	switch target.Kind {
	case domain.TargetBase:
		if a, ok := s.articles[target.ID]; ok {
			return a.BaseRevisionID
		}
	case domain.TargetOverlay:
		if o, ok := s.overlays[target.ID]; ok {
			return o.ActiveRevisionID
		}
	}
	return nil
}

func (s *memStore) CreateBase(ctx context.Context, articleID, body, summary, author string) (domain.Revision, error) {
	article, ok := s.articles[articleID]
	if !ok {
		return domain.Revision{}, domain.NotFoundError{Resource: "article"}
	}
	now := s.tick()
	revision := domain.Revision{
		ID:               s.nextID("rev"),
		Target:           domain.BaseTarget(articleID),
		Body:             body,
		ChangeSummary:    summary,
		Author:           author,
		CreatedAt:        now,
		Status:           domain.RevisionApproved,
		ApprovedBy:       &author,
		ApprovedAt:       &now,
		ParentRevisionID: article.BaseRevisionID,
	}
	s.revisions[revision.ID] = revision
	article.BaseRevisionID = &revision.ID
	s.articles[articleID] = article
	return revision, nil
}

func (s *memStore) CreateDraft(ctx context.Context, workspaceID string, target domain.RevisionTarget, body, summary, author string) (domain.Revision, domain.ReviewRequest, error) {
	revision := domain.Revision{
		ID:               s.nextID("rev"),
		Target:           target,
		Body:             body,
		ChangeSummary:    summary,
		Author:           author,
		CreatedAt:        s.tick(),
		Status:           domain.RevisionDraft,
		ParentRevisionID: s.currentPointer(target),
	}
	s.revisions[revision.ID] = revision
	request := s.openReview(workspaceID, revision.ID, author)
	return revision, request, nil
}

func (s *memStore) CreateRestoreDraft(ctx context.Context, workspaceID string, source domain.Revision, author string) (domain.Revision, domain.ReviewRequest, error) {
	revision := domain.Revision{
		ID:               s.nextID("rev"),
		Target:           source.Target,
		Body:             source.Body,
		ChangeSummary:    "Restore from " + source.ID,
		Author:           author,
		CreatedAt:        s.tick(),
		Status:           domain.RevisionDraft,
		ParentRevisionID: &source.ID,
	}
	s.revisions[revision.ID] = revision
	request := s.openReview(workspaceID, revision.ID, author)
	return revision, request, nil
}

func (s *memStore) openReview(workspaceID, revisionID, requester string) domain.ReviewRequest {
	request := domain.ReviewRequest{
		ID:          s.nextID("rr"),
		WorkspaceID: workspaceID,
		RevisionID:  revisionID,
		Status:      domain.ReviewOpen,
		RequestedBy: requester,
		CreatedAt:   s.tick(),
	}
	s.reviews[request.ID] = request
	return request
}

func (s *memStore) GetRevision(ctx context.Context, id string) (domain.Revision, error) {
	r, ok := s.revisions[id]
	if !ok {
		return domain.Revision{}, domain.NotFoundError{Resource: "revision"}
	}
	return r, nil
}

func (s *memStore) History(ctx context.Context, target domain.RevisionTarget) ([]domain.Revision, error) {
	var out []domain.Revision
	for _, r := range s.revisions {
		if r.Target == target {
			out = append(out, r)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *memStore) OwnerEntity(ctx context.Context, target domain.RevisionTarget) (domain.Entity, error) {
	switch target.Kind {
	case domain.TargetBase:
		article, ok := s.articles[target.ID]
		if !ok {
			return domain.Entity{}, domain.NotFoundError{Resource: "article"}
		}
		return s.Get(ctx, article.EntityID)
	case domain.TargetOverlay:
		overlay, ok := s.overlays[target.ID]
		if !ok {
			return domain.Entity{}, domain.NotFoundError{Resource: "overlay"}
		}
		return s.Get(ctx, overlay.EntityID)
	}
	return domain.Entity{}, domain.ValidationError{Reason: "unknown revision target"}
}

// --- OverlayRepository ---

func (s *memStore) CreateOverlay(ctx context.Context, overlay domain.Overlay) (domain.Overlay, error) {
	overlay.ID = s.nextID("ovl")
	overlay.UpdatedAt = s.tick()
	s.overlays[overlay.ID] = overlay
	return overlay, nil
}

func (s *memStore) GetOverlay(ctx context.Context, id string) (domain.Overlay, error) {
	o, ok := s.overlays[id]
	if !ok {
		return domain.Overlay{}, domain.NotFoundError{Resource: "overlay"}
	}
	return o, nil
}

func (s *memStore) ListByEntity(ctx context.Context, entityID string) ([]domain.Overlay, error) {
	var out []domain.Overlay
	for _, o := range s.overlays {
		if o.EntityID == entityID && !o.Deleted() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memStore) UpdateScope(ctx context.Context, overlay domain.Overlay) (domain.Overlay, error) {
	if _, ok := s.overlays[overlay.ID]; !ok {
		return domain.Overlay{}, domain.NotFoundError{Resource: "overlay"}
	}
	overlay.UpdatedAt = s.tick()
	s.overlays[overlay.ID] = overlay
	return overlay, nil
}

func (s *memStore) SoftDeleteOverlay(ctx context.Context, id string) error {
	overlay, ok := s.overlays[id]
	if !ok {
		return domain.NotFoundError{Resource: "overlay"}
	}
	now := s.tick()
	overlay.DeletedAt = &now
	s.overlays[id] = overlay
	return nil
}

// --- ReviewRepository ---

func (s *memStore) GetReview(ctx context.Context, id string) (domain.ReviewRequest, error) {
	r, ok := s.reviews[id]
	if !ok {
		return domain.ReviewRequest{}, domain.NotFoundError{Resource: "review request"}
	}
	return r, nil
}

func (s *memStore) ApproveReview(ctx context.Context, requestID, approver string) (domain.Revision, error) {
	request, ok := s.reviews[requestID]
	if !ok {
		return domain.Revision{}, domain.NotFoundError{Resource: "review request"}
	}
	if request.Status != domain.ReviewOpen {
		return domain.Revision{}, domain.ConflictError{Reason: "review request already closed"}
	}
	revision := s.revisions[request.RevisionID]
	if !revision.Status.CanTransition(domain.RevisionApproved) {
		return domain.Revision{}, domain.ConflictError{Reason: "revision is not in draft"}
	}

	now := s.tick()
	revision.Status = domain.RevisionApproved
	revision.ApprovedBy = &approver
	revision.ApprovedAt = &now
	s.revisions[revision.ID] = revision

	switch revision.Target.Kind {
	case domain.TargetBase:
		article := s.articles[revision.Target.ID]
		article.BaseRevisionID = &revision.ID
		s.articles[article.ID] = article
	case domain.TargetOverlay:
		overlay := s.overlays[revision.Target.ID]
		overlay.ActiveRevisionID = &revision.ID
		overlay.UpdatedAt = now
		s.overlays[overlay.ID] = overlay
	}

	request.Status = domain.ReviewApproved
	request.ClosedAt = &now
	s.reviews[requestID] = request
	return revision, nil
}

func (s *memStore) RejectReview(ctx context.Context, requestID, reason, approver string) (domain.Revision, domain.ReviewComment, error) {
	request, ok := s.reviews[requestID]
	if !ok {
		return domain.Revision{}, domain.ReviewComment{}, domain.NotFoundError{Resource: "review request"}
	}
	if request.Status != domain.ReviewOpen {
		return domain.Revision{}, domain.ReviewComment{}, domain.ConflictError{Reason: "review request already closed"}
	}
	revision := s.revisions[request.RevisionID]
	if !revision.Status.CanTransition(domain.RevisionRejected) {
		return domain.Revision{}, domain.ReviewComment{}, domain.ConflictError{Reason: "revision is not in draft"}
	}

	now := s.tick()
	revision.Status = domain.RevisionRejected
	s.revisions[revision.ID] = revision

	comment := domain.ReviewComment{
		ID:        s.nextID("cmt"),
		RequestID: requestID,
		Author:    approver,
		Body:      reason,
		CreatedAt: now,
	}
	request.Comments = append(request.Comments, comment)
	request.Status = domain.ReviewRejected
	request.ClosedAt = &now
	s.reviews[requestID] = request
	return revision, comment, nil
}

func (s *memStore) AddComment(ctx context.Context, requestID, author, body string) (domain.ReviewComment, error) {
	request, ok := s.reviews[requestID]
	if !ok {
		return domain.ReviewComment{}, domain.NotFoundError{Resource: "review request"}
	}
	comment := domain.ReviewComment{
		ID:        s.nextID("cmt"),
		RequestID: requestID,
		Author:    author,
		Body:      body,
		CreatedAt: s.tick(),
	}
	request.Comments = append(request.Comments, comment)
	s.reviews[requestID] = request
	return comment, nil
}

func (s *memStore) ListOpen(ctx context.Context, workspaceID string) ([]domain.ReviewRequest, error) {
	var out []domain.ReviewRequest
	for _, r := range s.reviews {
		if r.WorkspaceID == workspaceID && r.Status == domain.ReviewOpen {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- ReferenceRepository ---

func (s *memStore) ViewpointExists(ctx context.Context, workspaceID, id string) (bool, error) {
	return s.viewpoints[id], nil
}

func (s *memStore) EraExists(ctx context.Context, workspaceID, id string) (bool, error) {
	return s.eras[id], nil
}

func (s *memStore) ChapterExists(ctx context.Context, workspaceID, id string) (bool, error) {
	return s.chapters[id], nil
}

// --- RoleGateway ---

func (s *memStore) Has(ctx context.Context, userID, workspaceID string, min domain.Role) (bool, error) {
	return s.roles[userID].Meets(min), nil
}

// --- AuditSink / Notifier / ResolutionCache ---

func (s *memStore) Record(ctx context.Context, entry domain.AuditEntry) {
	s.audits = append(s.audits, entry)
}

func (s *memStore) NotifyWatchers(ctx context.Context, event domain.Event) {
	s.events = append(s.events, event)
}

func (s *memStore) CacheGet(ctx context.Context, entityID string, vc domain.ViewContext) (*domain.Resolution, bool) {
	return nil, false
}

func (s *memStore) CacheSet(ctx context.Context, entityID string, vc domain.ViewContext, res domain.Resolution) {
}

func (s *memStore) Invalidate(ctx context.Context, entityID string) {
	s.invalidated = append(s.invalidated, entityID)
}

// Interface adapters: the store's method names collide across interfaces,
// so thin views pick the right ones.

type revisionRepoView struct{ *memStore }

func (v revisionRepoView) Get(ctx context.Context, id string) (domain.Revision, error) {
	return v.GetRevision(ctx, id)
}

type overlayRepoView struct{ *memStore }

func (v overlayRepoView) Create(ctx context.Context, overlay domain.Overlay) (domain.Overlay, error) {
	return v.CreateOverlay(ctx, overlay)
}

func (v overlayRepoView) Get(ctx context.Context, id string) (domain.Overlay, error) {
	return v.GetOverlay(ctx, id)
}

func (v overlayRepoView) SoftDelete(ctx context.Context, id string) error {
	return v.SoftDeleteOverlay(ctx, id)
}

type reviewRepoView struct{ *memStore }

func (v reviewRepoView) Get(ctx context.Context, id string) (domain.ReviewRequest, error) {
	return v.GetReview(ctx, id)
}

func (v reviewRepoView) Approve(ctx context.Context, requestID, approver string) (domain.Revision, error) {
	return v.ApproveReview(ctx, requestID, approver)
}

func (v reviewRepoView) Reject(ctx context.Context, requestID, reason, approver string) (domain.Revision, domain.ReviewComment, error) {
	return v.RejectReview(ctx, requestID, reason, approver)
}

type cacheView struct{ *memStore }

func (v cacheView) Get(ctx context.Context, entityID string, vc domain.ViewContext) (*domain.Resolution, bool) {
	return v.CacheGet(ctx, entityID, vc)
}

func (v cacheView) Set(ctx context.Context, entityID string, vc domain.ViewContext, res domain.Resolution) {
	v.CacheSet(ctx, entityID, vc, res)
}

// fixture wires every usecase against one shared store.
type fixture struct {
	store    *memStore
	articles *ArticleUsecase
	overlays *OverlayUsecase
	reviews  *ReviewUsecase
	revs     *RevisionUsecase
	resolver *ResolverUsecase
}

func newFixture() *fixture {
	s := newMemStore()
	revRepo := revisionRepoView{s}
	ovlRepo := overlayRepoView{s}
	revwRepo := reviewRepoView{s}
	cache := cacheView{s}

	return &fixture{
		store:    s,
		articles: NewArticleUsecase(s, revRepo, s, s, s, cache),
		overlays: NewOverlayUsecase(s, ovlRepo, revRepo, s, s, s, cache),
		reviews:  NewReviewUsecase(revwRepo, revRepo, s, s, s, cache),
		revs:     NewRevisionUsecase(s, revRepo, s, s),
		resolver: NewResolverUsecase(s, ovlRepo, revRepo, cache),
	}
}
