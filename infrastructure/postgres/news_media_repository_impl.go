package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"musicschool-news/domain/models"
	"musicschool-news/domain/repositories"
)

type NewsMediaRepositoryImpl struct {
	db *gorm.DB
}

func NewNewsMediaRepository(db *gorm.DB) repositories.NewsMediaRepository {
	return &NewsMediaRepositoryImpl{db: db}
}

func (r *NewsMediaRepositoryImpl) Create(ctx context.Context, media *models.NewsMedia) error {
	if !media.IsPrincipal {
		return r.db.WithContext(ctx).Create(media).Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearPrincipal(tx, media.NewsID); err != nil {
			return err
		}
		return tx.Create(media).Error
	})
}

func (r *NewsMediaRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.NewsMedia, error) {
	var media models.NewsMedia
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&media).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *NewsMediaRepositoryImpl) ListByNews(ctx context.Context, newsID uuid.UUID) ([]models.NewsMedia, error) {
	var media []models.NewsMedia
	err := r.db.WithContext(ctx).
		Where("news_id = ?", newsID).
		Order("sort_order ASC").
		Order("is_principal DESC").
		Order("uploaded_at ASC").
		Find(&media).Error
	if err != nil {
		return nil, err
	}
	return media, nil
}

func (r *NewsMediaRepositoryImpl) MaxSortOrder(ctx context.Context, newsID uuid.UUID) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.NewsMedia{}).
		Where("news_id = ?", newsID).
		Select("MAX(sort_order)").
		Row().
		Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (r *NewsMediaRepositoryImpl) GetPrincipal(ctx context.Context, newsID uuid.UUID) (*models.NewsMedia, error) {
	var media models.NewsMedia
	err := r.db.WithContext(ctx).
		Where("news_id = ? AND is_principal = ?", newsID, true).
		First(&media).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *NewsMediaRepositoryImpl) SetPrincipal(ctx context.Context, newsID, mediaID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.NewsMedia{}).
			Where("id = ? AND news_id = ?", mediaID, newsID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := clearPrincipal(tx, newsID); err != nil {
			return err
		}
		return tx.Model(&models.NewsMedia{}).
			Where("id = ?", mediaID).
			Update("is_principal", true).Error
	})
}

func (r *NewsMediaRepositoryImpl) ClearPrincipal(ctx context.Context, newsID uuid.UUID) error {
	return clearPrincipal(r.db.WithContext(ctx), newsID)
}

func (r *NewsMediaRepositoryImpl) UpdateSortOrders(ctx context.Context, newsID uuid.UUID, orders map[uuid.UUID]int) error {
	if len(orders) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, order := range orders {
			result := tx.Model(&models.NewsMedia{}).
				Where("id = ? AND news_id = ?", id, newsID).
				Update("sort_order", order)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

func (r *NewsMediaRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.NewsMedia{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func clearPrincipal(tx *gorm.DB, newsID uuid.UUID) error {
	return tx.Model(&models.NewsMedia{}).
		Where("news_id = ? AND is_principal = ?", newsID, true).
		Update("is_principal", false).Error
}
