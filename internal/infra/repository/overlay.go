package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/database/models"
)

type OverlayRepository struct {
	db *gorm.DB
}

func NewOverlayRepository(db *gorm.DB) *OverlayRepository {
	return &OverlayRepository{db: db}
}

func overlayToDomain(m models.Overlay) domain.Overlay {
	return domain.Overlay{
		ID:                 m.ID,
		EntityID:           m.EntityID,
		Title:              m.Title,
		TruthFlag:          domain.TruthFlag(m.TruthFlag),
		ViewpointID:        m.ViewpointID,
		WorldFrom:          m.WorldFrom,
		WorldTo:            m.WorldTo,
		StoryFromChapterID: m.StoryFromChapterID,
		StoryToChapterID:   m.StoryToChapterID,
		ActiveRevisionID:   m.ActiveRevisionID,
		UpdatedAt:          m.MDate,
		DeletedAt:          m.DeletedAt,
	}
}

func (r *OverlayRepository) Create(ctx context.Context, overlay domain.Overlay) (domain.Overlay, error) {
	now := time.Now().UTC()
	row := models.Overlay{
		ID:                 uuid.NewString(),
		EntityID:           overlay.EntityID,
		Title:              overlay.Title,
		TruthFlag:          string(overlay.TruthFlag),
		ViewpointID:        overlay.ViewpointID,
		WorldFrom:          overlay.WorldFrom,
		WorldTo:            overlay.WorldTo,
		StoryFromChapterID: overlay.StoryFromChapterID,
		StoryToChapterID:   overlay.StoryToChapterID,
		CDate:              now,
		MDate:              now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Overlay{}, err
	}
	return overlayToDomain(row), nil
}

func (r *OverlayRepository) Get(ctx context.Context, id string) (domain.Overlay, error) {
	var row models.Overlay
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Overlay{}, domain.NotFoundError{Resource: "overlay"}
	}
	if err != nil {
		return domain.Overlay{}, err
	}
	return overlayToDomain(row), nil
}

func (r *OverlayRepository) ListByEntity(ctx context.Context, entityID string) ([]domain.Overlay, error) {
	var rows []models.Overlay
	err := r.db.WithContext(ctx).
		Where("entity_id = ? AND deleted_at IS NULL", entityID).
		Order("m_date desc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	overlays := make([]domain.Overlay, 0, len(rows))
	for _, row := range rows {
		overlays = append(overlays, overlayToDomain(row))
	}
	return overlays, nil
}

func (r *OverlayRepository) UpdateScope(ctx context.Context, overlay domain.Overlay) (domain.Overlay, error) {
	var row models.Overlay
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND deleted_at IS NULL", overlay.ID).
			Take(&row).Error
		if err == gorm.ErrRecordNotFound {
			return domain.NotFoundError{Resource: "overlay"}
		}
		if err != nil {
			return err
		}

		row.Title = overlay.Title
		row.TruthFlag = string(overlay.TruthFlag)
		row.ViewpointID = overlay.ViewpointID
		row.WorldFrom = overlay.WorldFrom
		row.WorldTo = overlay.WorldTo
		row.StoryFromChapterID = overlay.StoryFromChapterID
		row.StoryToChapterID = overlay.StoryToChapterID
		row.MDate = time.Now().UTC()

		return tx.Model(&models.Overlay{}).
			Where("id = ?", overlay.ID).
			Updates(map[string]any{
				"title":                 row.Title,
				"truth_flag":            row.TruthFlag,
				"viewpoint_id":          row.ViewpointID,
				"world_from":            row.WorldFrom,
				"world_to":              row.WorldTo,
				"story_from_chapter_id": row.StoryFromChapterID,
				"story_to_chapter_id":   row.StoryToChapterID,
				"m_date":                row.MDate,
			}).Error
	})
	if err != nil {
		return domain.Overlay{}, err
	}
	return overlayToDomain(row), nil
}

func (r *OverlayRepository) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Overlay{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "overlay"}
	}
	return nil
}
