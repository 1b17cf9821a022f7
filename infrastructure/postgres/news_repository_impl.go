package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"musicschool-news/domain/models"
	"musicschool-news/domain/repositories"
)

// listColumns is the summary projection used by List; the body is left out.
var listColumns = []string{
	"id", "slug", "title", "summary", "author", "category",
	"published_at", "visible", "featured", "view_count", "created_at", "updated_at",
}

type NewsRepositoryImpl struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) repositories.NewsRepository {
	return &NewsRepositoryImpl{db: db}
}

func (r *NewsRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.News, error) {
	var news models.News
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&news).Error
	if err != nil {
		return nil, err
	}
	return &news, nil
}

func (r *NewsRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*models.News, error) {
	var news models.News
	err := r.db.WithContext(ctx).Where("LOWER(slug) = ?", strings.ToLower(slug)).First(&news).Error
	if err != nil {
		return nil, err
	}
	return &news, nil
}

func (r *NewsRepositoryImpl) ExistsSlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.News{}).Where("LOWER(slug) = ?", strings.ToLower(slug))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *NewsRepositoryImpl) List(ctx context.Context, filter repositories.NewsListFilter) ([]models.News, int64, error) {
	var news []models.News
	var total int64

	query := r.db.WithContext(ctx).Model(&models.News{})
	if !filter.IncludeHidden {
		query = query.Where("visible = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Select(listColumns).Order("published_at DESC").Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	err := query.Find(&news).Error
	return news, total, err
}

func (r *NewsRepositoryImpl) Insert(ctx context.Context, news *models.News) error {
	err := r.db.WithContext(ctx).Create(news).Error
	if isUniqueViolation(err) {
		return repositories.ErrDuplicateSlug
	}
	return err
}

func (r *NewsRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, patch models.NewsPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.News{}).Where("id = ?", id).Updates(cols)
	if isUniqueViolation(result.Error) {
		return repositories.ErrDuplicateSlug
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NewsRepositoryImpl) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.News{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NewsRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("news_id = ?", id).Delete(&models.NewsMedia{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.News{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
