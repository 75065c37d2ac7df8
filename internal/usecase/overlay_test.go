package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

func strPtr(s string) *string { return &s }

func seedReference(f *fixture, viewpoints, eras, chapters []string) {
	for _, v := range viewpoints {
		f.store.viewpoints[v] = true
	}
	for _, e := range eras {
		f.store.eras[e] = true
	}
	for _, c := range chapters {
		f.store.chapters[c] = true
	}
}

func viewpointCtx(viewpointID string) domain.ViewContext {
	return domain.ViewContext{
		Mode:        domain.ModeViewpoint,
		ViewpointID: viewpointID,
		EraID:       domain.ScopeAll,
		ChapterID:   domain.ScopeAll,
	}
}

func TestOverlayDraftIsNotVisibleUntilApproved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedReference(f, []string{"V1"}, nil, nil)

	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")

	overlay, revision, err := f.overlays.CreateOverlay(ctx, CreateOverlayInput{
		EntityID:    created.EntityID,
		Title:       "Mount Calder (Imperial Belief)",
		TruthFlag:   domain.TruthPropaganda,
		Scope:       OverlayScope{ViewpointID: strPtr("V1")},
		InitialBody: "A sleeping god.",
		Author:      "reviewer",
	})
	if err != nil {
		t.Fatalf("create overlay failed: %v", err)
	}
	if revision.Status != domain.RevisionDraft {
		t.Fatalf("overlay revisions start as drafts, got %s", revision.Status)
	}

	// Unapproved overlay: readers still see canon.
	res, err := f.resolver.ResolveForContext(ctx, created.EntityID, viewpointCtx("V1"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Body != "A volcano." {
		t.Fatalf("expected canon fallback before approval, got %q", res.Body)
	}

	// After approval the viewpoint sees the overlay body.
	requests, _ := f.store.ListOpen(ctx, "ws1")
	if len(requests) != 1 {
		t.Fatalf("expected one open review request, got %d", len(requests))
	}
	if _, err := f.reviews.Approve(ctx, requests[0].ID, "reviewer"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	res, err = f.resolver.ResolveForContext(ctx, created.EntityID, viewpointCtx("V1"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Body != "A sleeping god." {
		t.Fatalf("expected overlay body after approval, got %q", res.Body)
	}
	if res.TargetType != domain.TargetOverlay || res.TargetID != overlay.ID {
		t.Fatalf("unexpected resolution target: %+v", res)
	}

	// Canon is untouched.
	canon, _ := f.resolver.ResolveForContext(ctx, created.EntityID, domain.ViewContext{
		Mode: domain.ModeCanon, EraID: domain.ScopeAll, ChapterID: domain.ScopeAll,
	})
	if canon.Body != "A volcano." {
		t.Fatalf("canon body changed: %q", canon.Body)
	}
}

func TestCreateOverlayFailsClosedOnDanglingReferences(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")

	_, _, err := f.overlays.CreateOverlay(ctx, CreateOverlayInput{
		EntityID:  created.EntityID,
		Title:     "O",
		TruthFlag: domain.TruthRumor,
		Scope:     OverlayScope{ViewpointID: strPtr("ghost")},
		Author:    "reviewer",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for unknown viewpoint, got %v", err)
	}

	seedReference(f, []string{"V1"}, nil, nil)
	_, _, err = f.overlays.CreateOverlay(ctx, CreateOverlayInput{
		EntityID:  created.EntityID,
		Title:     "O",
		TruthFlag: domain.TruthRumor,
		Scope:     OverlayScope{ViewpointID: strPtr("V1"), WorldFrom: strPtr("missing-era")},
		Author:    "reviewer",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for unknown era, got %v", err)
	}
}

func TestCreateOverlayValidatesTruthFlag(t *testing.T) {
	f := newFixture()
	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")

	_, _, err := f.overlays.CreateOverlay(context.Background(), CreateOverlayInput{
		EntityID:  created.EntityID,
		Title:     "O",
		TruthFlag: domain.TruthFlag("gospel"),
		Author:    "reviewer",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateOverlayRequiresReviewer(t *testing.T) {
	f := newFixture()
	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")

	_, _, err := f.overlays.CreateOverlay(context.Background(), CreateOverlayInput{
		EntityID:  created.EntityID,
		Title:     "O",
		TruthFlag: domain.TruthRumor,
		Author:    "viewer",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestOverlayRevisionParentsOnActiveRevision(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedReference(f, []string{"V1"}, nil, nil)
	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")

	overlay, first, err := f.overlays.CreateOverlay(ctx, CreateOverlayInput{
		EntityID:    created.EntityID,
		Title:       "O",
		TruthFlag:   domain.TruthRumor,
		Scope:       OverlayScope{ViewpointID: strPtr("V1")},
		InitialBody: "v1",
		Author:      "reviewer",
	})
	if err != nil {
		t.Fatalf("create overlay failed: %v", err)
	}
	requests, _ := f.store.ListOpen(ctx, "ws1")
	if _, err := f.reviews.Approve(ctx, requests[0].ID, "reviewer"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	second, err := f.overlays.CreateOverlayRevision(ctx, overlay.ID, "v2", "update", "reviewer")
	if err != nil {
		t.Fatalf("create overlay revision failed: %v", err)
	}
	if second.ParentRevisionID == nil || *second.ParentRevisionID != first.ID {
		t.Fatalf("expected parent %s, got %v", first.ID, second.ParentRevisionID)
	}

	// Pointer untouched until this draft is approved.
	stored, _ := f.store.GetOverlay(ctx, overlay.ID)
	if stored.ActiveRevisionID == nil || *stored.ActiveRevisionID != first.ID {
		t.Fatalf("active pointer moved before approval")
	}
}

func TestOverlayAuditCarriesBody(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedReference(f, []string{"V1"}, nil, nil)
	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")

	overlay, _, err := f.overlays.CreateOverlay(ctx, CreateOverlayInput{
		EntityID:    created.EntityID,
		Title:       "O",
		TruthFlag:   domain.TruthRumor,
		Scope:       OverlayScope{ViewpointID: strPtr("V1")},
		InitialBody: "v1",
		Author:      "reviewer",
	})
	if err != nil {
		t.Fatalf("create overlay failed: %v", err)
	}
	entry := f.store.audits[len(f.store.audits)-1]
	if entry.Action != "overlay.create" || entry.Metadata["body"] != "v1" {
		t.Fatalf("expected overlay body in audit metadata, got %+v", entry.Metadata)
	}

	if _, err := f.overlays.CreateOverlayRevision(ctx, overlay.ID, "v2", "update", "reviewer"); err != nil {
		t.Fatalf("create overlay revision failed: %v", err)
	}
	entry = f.store.audits[len(f.store.audits)-1]
	if entry.Action != "revision.overlay.create" || entry.Metadata["body"] != "v2" {
		t.Fatalf("expected revision body in audit metadata, got %+v", entry.Metadata)
	}
}

func TestDeleteOverlayRemovesItFromResolution(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedReference(f, []string{"V1"}, nil, nil)
	created := mustCreateEntity(t, f, "Mount Calder", "A volcano.")

	overlay, _, err := f.overlays.CreateOverlay(ctx, CreateOverlayInput{
		EntityID:    created.EntityID,
		Title:       "O",
		TruthFlag:   domain.TruthRumor,
		Scope:       OverlayScope{ViewpointID: strPtr("V1")},
		InitialBody: "whisper",
		Author:      "reviewer",
	})
	if err != nil {
		t.Fatalf("create overlay failed: %v", err)
	}
	requests, _ := f.store.ListOpen(ctx, "ws1")
	if _, err := f.reviews.Approve(ctx, requests[0].ID, "reviewer"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := f.overlays.DeleteOverlay(ctx, overlay.ID, "reviewer"); err != nil {
		t.Fatalf("delete overlay failed: %v", err)
	}

	res, err := f.resolver.ResolveForContext(ctx, created.EntityID, viewpointCtx("V1"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Body != "A volcano." {
		t.Fatalf("deleted overlay must not resolve, got %q", res.Body)
	}
}
