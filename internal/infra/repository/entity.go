package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/database/models"
)

type EntityRepository struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

func entityToDomain(m models.Entity) domain.Entity {
	return domain.Entity{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		Title:       m.Title,
		Type:        m.Type,
		Aliases:     m.Aliases,
		Tags:        m.Tags,
		DeletedAt:   m.DeletedAt,
	}
}

func articleToDomain(m models.Article) domain.Article {
	return domain.Article{
		ID:             m.ID,
		EntityID:       m.EntityID,
		BaseRevisionID: m.BaseRevisionID,
	}
}

func titleKey(title string) string {
	return strings.ToLower(title)
}

// checkTitleFree reports a Conflict before any writes when a live entity
// already holds the title. When no such row exists yet there is nothing to
// lock, so the partial unique index on (workspace_id, title_key) is what
// actually keeps two concurrent writers from both committing; see
// translateTitleConflict.
func checkTitleFree(tx *gorm.DB, workspaceID, title, excludeEntityID string) error {
	var existing models.Entity
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("workspace_id = ? AND title_key = ? AND deleted_at IS NULL", workspaceID, titleKey(title))
	if excludeEntityID != "" {
		q = q.Where("id <> ?", excludeEntityID)
	}
	err := q.Take(&existing).Error
	if err == nil {
		return domain.ConflictError{Reason: "title already taken: " + existing.Title}
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// translateTitleConflict maps the unique-index violation raised by a
// concurrent insert or rename of the same title into the same Conflict the
// pre-check reports.
func translateTitleConflict(err error, title string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ConflictError{Reason: "title already taken: " + title}
	}
	return err
}

func (r *EntityRepository) CreateWithArticle(ctx context.Context, entity domain.Entity, initialBody, summary, author string) (domain.Entity, domain.Article, domain.Revision, error) {
	now := time.Now().UTC()

	row := models.Entity{
		ID:          uuid.NewString(),
		WorkspaceID: entity.WorkspaceID,
		Title:       entity.Title,
		TitleKey:    titleKey(entity.Title),
		Type:        entity.Type,
		Aliases:     entity.Aliases,
		Tags:        entity.Tags,
		CDate:       now,
	}
	article := models.Article{
		ID:       uuid.NewString(),
		EntityID: row.ID,
	}
	revision := models.Revision{
		ID:            uuid.NewString(),
		Target:        string(domain.TargetBase),
		ArticleID:     &article.ID,
		Body:          initialBody,
		ChangeSummary: summary,
		Author:        author,
		Status:        string(domain.RevisionApproved),
		ApprovedBy:    &author,
		ApprovedAt:    &now,
		CDate:         now,
	}
	article.BaseRevisionID = &revision.ID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTitleFree(tx, entity.WorkspaceID, entity.Title, ""); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return translateTitleConflict(err, entity.Title)
		}
		if err := tx.Create(&revision).Error; err != nil {
			return err
		}
		return tx.Create(&article).Error
	})
	if err != nil {
		return domain.Entity{}, domain.Article{}, domain.Revision{}, err
	}

	return entityToDomain(row), articleToDomain(article), revisionToDomain(revision), nil
}

func (r *EntityRepository) Get(ctx context.Context, id string) (domain.Entity, error) {
	var row models.Entity
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}
	if err != nil {
		return domain.Entity{}, err
	}
	return entityToDomain(row), nil
}

func (r *EntityRepository) GetArticle(ctx context.Context, articleID string) (domain.Article, error) {
	var row models.Article
	err := r.db.WithContext(ctx).
		Where("id = ?", articleID).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Article{}, domain.NotFoundError{Resource: "article"}
	}
	if err != nil {
		return domain.Article{}, err
	}
	return articleToDomain(row), nil
}

func (r *EntityRepository) GetArticleByEntity(ctx context.Context, entityID string) (domain.Article, error) {
	var row models.Article
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Article{}, domain.NotFoundError{Resource: "article"}
	}
	if err != nil {
		return domain.Article{}, err
	}
	return articleToDomain(row), nil
}

func (r *EntityRepository) List(ctx context.Context, workspaceID string) ([]domain.Entity, error) {
	var rows []models.Entity
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND deleted_at IS NULL", workspaceID).
		Order("title_key asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entities := make([]domain.Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, entityToDomain(row))
	}
	return entities, nil
}

func (r *EntityRepository) Rename(ctx context.Context, entityID, newTitle string, addRedirectAlias bool) (domain.Entity, error) {
	var row models.Entity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", entityID).
			Take(&row).Error
		if err == gorm.ErrRecordNotFound {
			return domain.NotFoundError{Resource: "entity"}
		}
		if err != nil {
			return err
		}

		if err := checkTitleFree(tx, row.WorkspaceID, newTitle, entityID); err != nil {
			return err
		}

		if addRedirectAlias && !containsFold(row.Aliases, row.Title) {
			row.Aliases = append(row.Aliases, row.Title)
		}
		row.Title = newTitle
		row.TitleKey = titleKey(newTitle)

		err = tx.Model(&models.Entity{}).
			Where("id = ?", entityID).
			Select("Title", "TitleKey", "Aliases").
			Updates(models.Entity{Title: row.Title, TitleKey: row.TitleKey, Aliases: row.Aliases}).Error
		return translateTitleConflict(err, newTitle)
	})
	if err != nil {
		return domain.Entity{}, err
	}
	return entityToDomain(row), nil
}

func (r *EntityRepository) SetTags(ctx context.Context, entityID string, tags []string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Entity{}).
		Where("id = ?", entityID).
		Select("Tags").
		Updates(models.Entity{Tags: tags})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "entity"}
	}
	return nil
}

func (r *EntityRepository) SoftDelete(ctx context.Context, entityID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Entity{}).
		Where("id = ? AND deleted_at IS NULL", entityID).
		Update("deleted_at", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "entity"}
	}
	return nil
}

func (r *EntityRepository) Restore(ctx context.Context, entityID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Entity{}).
		Where("id = ? AND deleted_at IS NOT NULL", entityID).
		Update("deleted_at", nil)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return domain.ConflictError{Reason: "a live entity already holds this title"}
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "entity"}
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
