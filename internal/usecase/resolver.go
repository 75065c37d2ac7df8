package usecase

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

var tracer = otel.Tracer("resolver")

// ResolverUsecase answers: given an entity and a viewing context, which
// revision's body should be shown or edited?
type ResolverUsecase struct {
	entities  EntityRepository
	overlays  OverlayRepository
	revisions RevisionRepository
	cache     ResolutionCache
}

func NewResolverUsecase(
	entities EntityRepository,
	overlays OverlayRepository,
	revisions RevisionRepository,
	cache ResolutionCache,
) *ResolverUsecase {
	return &ResolverUsecase{
		entities:  entities,
		overlays:  overlays,
		revisions: revisions,
		cache:     cache,
	}
}

// ResolveForContext selects the single applicable revision for a reader:
//
//  1. canon mode (or the canon pseudo-viewpoint) resolves to the article's
//     base pointer;
//  2. otherwise the entity's live overlays are filtered by era and chapter
//     (endpoint equality, "all" wildcards, timeless overlays always pass);
//  3. among candidates the one matching the requested viewpoint wins; when
//     several overlays share a viewpoint the most recently updated one is
//     chosen (id order as the final deterministic key) — a documented
//     policy for data the model does not declare unique;
//  4. no viewpoint match falls back to canon: absence of an overlay means
//     the viewpoint holds no special belief. An overlay whose revisions
//     were never approved has no displayable body, so readers fall back to
//     canon there too — drafts are never shown.
func (uc *ResolverUsecase) ResolveForContext(ctx context.Context, entityID string, vc domain.ViewContext) (domain.Resolution, error) {
	ctx, span := tracer.Start(ctx, "Resolver.ResolveForContext")
	defer span.End()

	if cached, ok := uc.cache.Get(ctx, entityID, vc); ok {
		return *cached, nil
	}

	res, err := uc.resolve(ctx, entityID, vc, false)
	if err != nil {
		span.RecordError(errors.Wrap(err, "resolve failed"))
		return domain.Resolution{}, err
	}

	uc.cache.Set(ctx, entityID, vc, res)
	return res, nil
}

// ResolveEditTarget resolves the target an edit in this context must land
// on. Candidate selection is the read-side choice verbatim, so editing a
// viewpoint-filtered view edits that viewpoint's overlay and never canon.
// The one divergence from the read side: a selected overlay that has never
// been approved is still the edit target (with an empty body), while
// readers fall back to canon.
func (uc *ResolverUsecase) ResolveEditTarget(ctx context.Context, entityID string, vc domain.ViewContext) (domain.Resolution, error) {
	ctx, span := tracer.Start(ctx, "Resolver.ResolveEditTarget")
	defer span.End()

	res, err := uc.resolve(ctx, entityID, vc, true)
	if err != nil {
		span.RecordError(errors.Wrap(err, "resolve failed"))
		return domain.Resolution{}, err
	}
	return res, nil
}

func (uc *ResolverUsecase) resolve(ctx context.Context, entityID string, vc domain.ViewContext, forEdit bool) (domain.Resolution, error) {
	entity, err := uc.entities.Get(ctx, entityID)
	if err != nil {
		return domain.Resolution{}, err
	}
	if entity.Deleted() {
		return domain.Resolution{}, domain.NotFoundError{Resource: "entity"}
	}

	if vc.Canonical() {
		return uc.resolveBase(ctx, entity)
	}

	overlays, err := uc.overlays.ListByEntity(ctx, entity.ID)
	if err != nil {
		return domain.Resolution{}, err
	}

	var candidates []domain.Overlay
	for _, o := range overlays {
		if !o.MatchesEra(vc.EraID) || !o.MatchesChapter(vc.ChapterID) {
			continue
		}
		if o.ViewpointID == nil || *o.ViewpointID != vc.ViewpointID {
			continue
		}
		candidates = append(candidates, o)
	}

	if len(candidates) == 0 {
		return uc.resolveBase(ctx, entity)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].UpdatedAt.Equal(candidates[j].UpdatedAt) {
			return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
		}
		return candidates[i].ID < candidates[j].ID
	})
	winner := candidates[0]

	if winner.ActiveRevisionID == nil {
		if forEdit {
			return domain.Resolution{
				TargetType: domain.TargetOverlay,
				TargetID:   winner.ID,
			}, nil
		}
		return uc.resolveBase(ctx, entity)
	}

	revision, err := uc.revisions.Get(ctx, *winner.ActiveRevisionID)
	if err != nil {
		return domain.Resolution{}, err
	}

	return domain.Resolution{
		TargetType: domain.TargetOverlay,
		TargetID:   winner.ID,
		RevisionID: revision.ID,
		Body:       revision.Body,
	}, nil
}

func (uc *ResolverUsecase) resolveBase(ctx context.Context, entity domain.Entity) (domain.Resolution, error) {
	article, err := uc.entities.GetArticleByEntity(ctx, entity.ID)
	if err != nil {
		return domain.Resolution{}, err
	}

	if article.BaseRevisionID == nil {
		return domain.Resolution{
			TargetType: domain.TargetBase,
			TargetID:   article.ID,
		}, nil
	}

	revision, err := uc.revisions.Get(ctx, *article.BaseRevisionID)
	if err != nil {
		return domain.Resolution{}, err
	}

	return domain.Resolution{
		TargetType: domain.TargetBase,
		TargetID:   article.ID,
		RevisionID: revision.ID,
		Body:       revision.Body,
	}, nil
}
