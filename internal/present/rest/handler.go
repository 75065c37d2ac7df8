package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/present/rest/presenter"
	"github.com/GrEarl/Depictionator-sub001/internal/service"
	"github.com/GrEarl/Depictionator-sub001/internal/usecase"
	"github.com/GrEarl/Depictionator-sub001/policy"
)

// RealtimeStream feeds workspace events to one websocket session. Satisfied
// by service.SignalService.
type RealtimeStream interface {
	Realtime(ctx context.Context, input <-chan []string, output chan<- domain.Event)
}

type Handler struct {
	article  *usecase.ArticleUsecase
	overlay  *usecase.OverlayUsecase
	revision *usecase.RevisionUsecase
	review   *usecase.ReviewUsecase
	resolver *usecase.ResolverUsecase
	signal   RealtimeStream
	validate *validator.Validate
}

func NewHandler(
	article *usecase.ArticleUsecase,
	overlay *usecase.OverlayUsecase,
	revision *usecase.RevisionUsecase,
	review *usecase.ReviewUsecase,
	resolver *usecase.ResolverUsecase,
	signal RealtimeStream,
) *Handler {
	return &Handler{
		article:  article,
		overlay:  overlay,
		revision: revision,
		review:   review,
		resolver: resolver,
		signal:   signal,
		validate: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/workspaces/:workspace/entities", h.handleCreateEntity)
	e.GET("/api/v1/workspaces/:workspace/entities", h.handleListEntities)
	e.GET("/api/v1/entities/:id", h.handleGetEntity)
	e.POST("/api/v1/entities/:id/rename", h.handleRenameEntity)
	e.POST("/api/v1/entities/:id/protection", h.handleSetProtection)
	e.DELETE("/api/v1/entities/:id", h.handleDeleteEntity)
	e.POST("/api/v1/entities/:id/restore", h.handleRestoreEntity)
	e.GET("/api/v1/entities/:id/resolve", h.handleResolve)
	e.GET("/api/v1/entities/:id/edit-target", h.handleEditTarget)
	e.POST("/api/v1/entities/:id/overlays", h.handleCreateOverlay)
	e.GET("/api/v1/entities/:id/overlays", h.handleListOverlays)
	e.POST("/api/v1/articles/:id/revisions", h.handleCreateBaseRevision)
	e.GET("/api/v1/articles/:id/history", h.handleArticleHistory)
	e.POST("/api/v1/overlays/:id/revisions", h.handleCreateOverlayRevision)
	e.PUT("/api/v1/overlays/:id/scope", h.handleUpdateOverlayScope)
	e.DELETE("/api/v1/overlays/:id", h.handleDeleteOverlay)
	e.GET("/api/v1/overlays/:id/history", h.handleOverlayHistory)
	e.GET("/api/v1/revisions/:id", h.handleGetRevision)
	e.POST("/api/v1/revisions/:id/restore", h.handleRestoreRevision)
	e.GET("/api/v1/workspaces/:workspace/reviews", h.handleListOpenReviews)
	e.POST("/api/v1/reviews/:id/approve", h.handleApproveReview)
	e.POST("/api/v1/reviews/:id/reject", h.handleRejectReview)
	e.POST("/api/v1/reviews/:id/comments", h.handleAddReviewComment)
	e.GET("/realtime", h.handleRealtime)
}

type createEntityRequest struct {
	Title       string `json:"title" validate:"required"`
	Type        string `json:"type" validate:"required"`
	InitialBody string `json:"initialBody"`
}

func (h *Handler) handleCreateEntity(c echo.Context) error {
	ctx := c.Request().Context()

	var req createEntityRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.article.CreateEntityWithArticle(ctx, usecase.CreateEntityInput{
		WorkspaceID: c.Param("workspace"),
		Title:       req.Title,
		Type:        req.Type,
		InitialBody: req.InitialBody,
		Author:      service.ActorOf(c),
	})
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, created)
}

func (h *Handler) handleListEntities(c echo.Context) error {
	entities, err := h.article.ListEntities(c.Request().Context(), c.Param("workspace"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, entities)
}

func (h *Handler) handleGetEntity(c echo.Context) error {
	entity, article, err := h.article.GetEntity(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"entity": entity, "article": article})
}

type renameEntityRequest struct {
	NewTitle         string `json:"newTitle" validate:"required"`
	AddRedirectAlias bool   `json:"addRedirectAlias"`
}

func (h *Handler) handleRenameEntity(c echo.Context) error {
	var req renameEntityRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	entity, err := h.article.RenameEntity(
		c.Request().Context(), c.Param("id"), req.NewTitle, req.AddRedirectAlias, service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, entity)
}

type setProtectionRequest struct {
	Level string `json:"level" validate:"required,oneof=none editor admin"`
}

func (h *Handler) handleSetProtection(c echo.Context) error {
	var req setProtectionRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	level, ok := policy.ParseLevel(req.Level)
	if !ok {
		return presenter.BadRequestMessage(c, "unknown protection level")
	}

	entity, err := h.article.SetProtection(c.Request().Context(), c.Param("id"), level, service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, entity)
}

func (h *Handler) handleDeleteEntity(c echo.Context) error {
	err := h.article.DeleteEntity(c.Request().Context(), c.Param("id"), service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleRestoreEntity(c echo.Context) error {
	err := h.article.RestoreEntity(c.Request().Context(), c.Param("id"), service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func viewContextOf(c echo.Context) domain.ViewContext {
	vc := domain.ViewContext{
		Mode:        domain.ViewMode(c.QueryParam("mode")),
		ViewpointID: c.QueryParam("viewpoint"),
		EraID:       c.QueryParam("era"),
		ChapterID:   c.QueryParam("chapter"),
	}
	if vc.Mode == "" {
		vc.Mode = domain.ModeCanon
	}
	if vc.EraID == "" {
		vc.EraID = domain.ScopeAll
	}
	if vc.ChapterID == "" {
		vc.ChapterID = domain.ScopeAll
	}
	return vc
}

func (h *Handler) handleResolve(c echo.Context) error {
	vc := viewContextOf(c)
	if vc.Mode != domain.ModeCanon && vc.Mode != domain.ModeViewpoint {
		return presenter.BadRequestMessage(c, "invalid mode parameter")
	}

	resolution, err := h.resolver.ResolveForContext(c.Request().Context(), c.Param("id"), vc)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, resolution)
}

func (h *Handler) handleEditTarget(c echo.Context) error {
	vc := viewContextOf(c)
	if vc.Mode != domain.ModeCanon && vc.Mode != domain.ModeViewpoint {
		return presenter.BadRequestMessage(c, "invalid mode parameter")
	}

	resolution, err := h.resolver.ResolveEditTarget(c.Request().Context(), c.Param("id"), vc)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, resolution)
}

type createOverlayRequest struct {
	Title              string  `json:"title" validate:"required"`
	TruthFlag          string  `json:"truthFlag" validate:"required,oneof=canonical rumor propaganda disputed"`
	ViewpointID        *string `json:"viewpointId"`
	WorldFrom          *string `json:"worldFrom"`
	WorldTo            *string `json:"worldTo"`
	StoryFromChapterID *string `json:"storyFromChapterId"`
	StoryToChapterID   *string `json:"storyToChapterId"`
	InitialBody        string  `json:"initialBody"`
}

func (h *Handler) handleCreateOverlay(c echo.Context) error {
	var req createOverlayRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	overlay, revision, err := h.overlay.CreateOverlay(c.Request().Context(), usecase.CreateOverlayInput{
		EntityID:  c.Param("id"),
		Title:     req.Title,
		TruthFlag: domain.TruthFlag(req.TruthFlag),
		Scope: usecase.OverlayScope{
			ViewpointID:        req.ViewpointID,
			WorldFrom:          req.WorldFrom,
			WorldTo:            req.WorldTo,
			StoryFromChapterID: req.StoryFromChapterID,
			StoryToChapterID:   req.StoryToChapterID,
		},
		InitialBody: req.InitialBody,
		Author:      service.ActorOf(c),
	})
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"overlay": overlay, "revision": revision})
}

func (h *Handler) handleListOverlays(c echo.Context) error {
	overlays, err := h.overlay.ListOverlays(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, overlays)
}

type createRevisionRequest struct {
	Body          string `json:"body" validate:"required"`
	ChangeSummary string `json:"changeSummary"`
}

func (h *Handler) handleCreateBaseRevision(c echo.Context) error {
	var req createRevisionRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	revision, err := h.article.CreateBaseRevision(
		c.Request().Context(), c.Param("id"), req.Body, req.ChangeSummary, service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revision)
}

func (h *Handler) handleArticleHistory(c echo.Context) error {
	revisions, err := h.revision.ArticleHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revisions)
}

func (h *Handler) handleCreateOverlayRevision(c echo.Context) error {
	var req createRevisionRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	revision, err := h.overlay.CreateOverlayRevision(
		c.Request().Context(), c.Param("id"), req.Body, req.ChangeSummary, service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revision)
}

type updateScopeRequest struct {
	TruthFlag          string  `json:"truthFlag" validate:"required,oneof=canonical rumor propaganda disputed"`
	ViewpointID        *string `json:"viewpointId"`
	WorldFrom          *string `json:"worldFrom"`
	WorldTo            *string `json:"worldTo"`
	StoryFromChapterID *string `json:"storyFromChapterId"`
	StoryToChapterID   *string `json:"storyToChapterId"`
}

func (h *Handler) handleUpdateOverlayScope(c echo.Context) error {
	var req updateScopeRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	overlay, err := h.overlay.UpdateScope(
		c.Request().Context(),
		c.Param("id"),
		usecase.OverlayScope{
			ViewpointID:        req.ViewpointID,
			WorldFrom:          req.WorldFrom,
			WorldTo:            req.WorldTo,
			StoryFromChapterID: req.StoryFromChapterID,
			StoryToChapterID:   req.StoryToChapterID,
		},
		domain.TruthFlag(req.TruthFlag),
		service.ActorOf(c),
	)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, overlay)
}

func (h *Handler) handleDeleteOverlay(c echo.Context) error {
	err := h.overlay.DeleteOverlay(c.Request().Context(), c.Param("id"), service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleOverlayHistory(c echo.Context) error {
	revisions, err := h.revision.OverlayHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revisions)
}

func (h *Handler) handleGetRevision(c echo.Context) error {
	revision, err := h.revision.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revision)
}

func (h *Handler) handleRestoreRevision(c echo.Context) error {
	revision, err := h.revision.Restore(c.Request().Context(), c.Param("id"), service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revision)
}

func (h *Handler) handleListOpenReviews(c echo.Context) error {
	requests, err := h.review.ListOpen(c.Request().Context(), c.Param("workspace"), service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, requests)
}

func (h *Handler) handleApproveReview(c echo.Context) error {
	revision, err := h.review.Approve(c.Request().Context(), c.Param("id"), service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revision)
}

type rejectReviewRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleRejectReview(c echo.Context) error {
	var req rejectReviewRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	revision, err := h.review.Reject(c.Request().Context(), c.Param("id"), req.Reason, service.ActorOf(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, revision)
}

type addCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

func (h *Handler) handleAddReviewComment(c echo.Context) error {
	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return presenter.BadRequest(c, err)
	}

	comment, err := h.review.AddComment(c.Request().Context(), c.Param("id"), service.ActorOf(c), req.Body)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, comment)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type       string   `json:"type"`
	Workspaces []string `json:"workspaces"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	input := make(chan []string)
	output := make(chan domain.Event)

	go h.signal.Realtime(ctx, input, output)

	// Buffered so the reader can signal exit even after the writer loop has
	// already returned. The reader itself unblocks via ws.Close.
	quit := make(chan struct{}, 1)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Workspaces:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Workspaces),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
