package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/policy"
)

func TestRestoreRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")
	if _, err := f.articles.CreateBaseRevision(ctx, created.ArticleID, "A dormant volcano.", "revise", "editor"); err != nil {
		t.Fatalf("base revision failed: %v", err)
	}

	// Restore the original revision: a draft parented on it, not on the
	// current head, carrying its body verbatim.
	draft, err := f.revs.Restore(ctx, created.RevisionID, "editor")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if draft.Status != domain.RevisionDraft {
		t.Fatalf("base restores route through review, got status %s", draft.Status)
	}
	if draft.Body != "A volcano." {
		t.Fatalf("restored body mismatch: %q", draft.Body)
	}
	if draft.ParentRevisionID == nil || *draft.ParentRevisionID != created.RevisionID {
		t.Fatalf("restore must parent on the restored revision, got %v", draft.ParentRevisionID)
	}
	if draft.ChangeSummary != "Restore from "+created.RevisionID {
		t.Fatalf("unexpected summary %q", draft.ChangeSummary)
	}

	// Pointer has not moved yet.
	article, _ := f.store.GetArticle(ctx, created.ArticleID)
	if *article.BaseRevisionID == draft.ID {
		t.Fatalf("pointer must not advance before approval")
	}

	requests, _ := f.store.ListOpen(ctx, "ws1")
	if len(requests) != 1 {
		t.Fatalf("expected an open review request for the restore draft")
	}
	if _, err := f.reviews.Approve(ctx, requests[0].ID, "reviewer"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	article, _ = f.store.GetArticle(ctx, created.ArticleID)
	if article.BaseRevisionID == nil || *article.BaseRevisionID != draft.ID {
		t.Fatalf("pointer should now reference the approved restore draft")
	}
	head, _ := f.store.GetRevision(ctx, *article.BaseRevisionID)
	if head.Body != "A volcano." {
		t.Fatalf("head body mismatch after restore: %q", head.Body)
	}
}

func TestRestoreRejectedRevisionIsAllowed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, request := seedOverlayDraft(t, f)

	rejected, err := f.reviews.Reject(ctx, request.ID, "not yet", "reviewer")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	draft, err := f.revs.Restore(ctx, rejected.ID, "reviewer")
	if err != nil {
		t.Fatalf("restore of rejected revision failed: %v", err)
	}
	if draft.Body != rejected.Body {
		t.Fatalf("body mismatch")
	}
	if draft.ParentRevisionID == nil || *draft.ParentRevisionID != rejected.ID {
		t.Fatalf("parent mismatch")
	}
}

func TestRestoreRespectsProtection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")
	if _, err := f.articles.SetProtection(ctx, created.EntityID, policy.LevelAdmin, "admin"); err != nil {
		t.Fatalf("set protection failed: %v", err)
	}

	_, err := f.revs.Restore(ctx, created.RevisionID, "editor")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected Forbidden for editor on admin-protected base, got %v", err)
	}
}

func TestArticleHistoryNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created := mustCreateEntity(t, f, "Mount Calder", "v1")
	second, err := f.articles.CreateBaseRevision(ctx, created.ArticleID, "v2", "s", "editor")
	if err != nil {
		t.Fatalf("base revision failed: %v", err)
	}

	history, err := f.revs.ArticleHistory(ctx, created.ArticleID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(history))
	}
	if history[0].ID != second.ID {
		t.Fatalf("expected newest first, got %s", history[0].ID)
	}
}

func TestRestoreMissingRevision(t *testing.T) {
	f := newFixture()

	_, err := f.revs.Restore(context.Background(), "rev-missing", "editor")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
