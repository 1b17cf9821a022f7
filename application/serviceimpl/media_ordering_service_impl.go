package serviceimpl

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"musicschool-news/domain/errs"
	"musicschool-news/domain/models"
	"musicschool-news/domain/repositories"
	"musicschool-news/domain/services"
	"musicschool-news/infrastructure/metrics"
	"musicschool-news/infrastructure/storage"
	"musicschool-news/pkg/clock"
	"musicschool-news/pkg/logger"
)

// blobReleaseTimeout bounds blob deletes that outlive the request.
const blobReleaseTimeout = 30 * time.Second

type MediaOrderingServiceImpl struct {
	mediaRepo repositories.NewsMediaRepository
	blobs     storage.BlobStore
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewMediaOrderingService(
	mediaRepo repositories.NewsMediaRepository,
	blobs storage.BlobStore,
	m *metrics.Metrics,
	clk clock.Clock,
) services.MediaOrderingService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MediaOrderingServiceImpl{
		mediaRepo: mediaRepo,
		blobs:     blobs,
		metrics:   m,
		clock:     clk,
	}
}

func validateAssetData(data services.AssetData) error {
	if data.URL == "" {
		return errs.Validation("media url is required")
	}
	switch data.Kind {
	case models.MediaKindImage, models.MediaKindVideo, models.MediaKindGIF:
		return nil
	default:
		return errs.Validationf("unsupported media kind %q", data.Kind)
	}
}

func (s *MediaOrderingServiceImpl) newMedia(newsID uuid.UUID, data services.AssetData, order int, principal bool) *models.NewsMedia {
	return &models.NewsMedia{
		NewsID:      newsID,
		URL:         data.URL,
		AltText:     data.AltText,
		SortOrder:   order,
		IsPrincipal: principal,
		Kind:        data.Kind,
		MimeType:    data.MimeType,
		SizeBytes:   data.SizeBytes,
		UploadedAt:  s.clock.Now(),
	}
}

func (s *MediaOrderingServiceImpl) create(ctx context.Context, media *models.NewsMedia) error {
	if err := s.mediaRepo.Create(ctx, media); err != nil {
		logger.MediaError("media_attach_failed", "Failed to attach media", err, map[string]interface{}{
			"news_id": media.NewsID.String(),
			"url":     media.URL,
		})
		return errs.Internal("failed to attach media", err)
	}

	s.metrics.RecordMediaAttached(string(media.Kind))
	logger.Media("media_attached", "Media attached", map[string]interface{}{
		"news_id":      media.NewsID.String(),
		"media_id":     media.ID.String(),
		"sort_order":   media.SortOrder,
		"is_principal": media.IsPrincipal,
	})
	return nil
}

func (s *MediaOrderingServiceImpl) nextOrder(ctx context.Context, newsID uuid.UUID) (int, error) {
	max, err := s.mediaRepo.MaxSortOrder(ctx, newsID)
	if err != nil {
		return 0, errs.Internal("failed to read media order", err)
	}
	return max + 1, nil
}

func (s *MediaOrderingServiceImpl) Attach(ctx context.Context, newsID uuid.UUID, data services.AssetData, explicitOrder *int) (*models.NewsMedia, error) {
	if err := validateAssetData(data); err != nil {
		return nil, err
	}

	var order int
	if explicitOrder != nil {
		if *explicitOrder < 0 {
			return nil, errs.Validation("sort order must not be negative")
		}
		existing, err := s.mediaRepo.ListByNews(ctx, newsID)
		if err != nil {
			return nil, errs.Internal("failed to list media", err)
		}
		for _, m := range existing {
			if m.SortOrder == *explicitOrder {
				return nil, errs.Validationf("sort order %d is already used", *explicitOrder)
			}
		}
		order = *explicitOrder
	} else {
		next, err := s.nextOrder(ctx, newsID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	media := s.newMedia(newsID, data, order, data.IsPrincipal)
	if err := s.create(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

// AttachBatch appends items in slice order. When several items ask for principal,
// the first one gets it and the rest are stored as ordinary media.
func (s *MediaOrderingServiceImpl) AttachBatch(ctx context.Context, newsID uuid.UUID, items []services.AssetData) ([]models.NewsMedia, error) {
	for _, data := range items {
		if err := validateAssetData(data); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		return nil, nil
	}

	order, err := s.nextOrder(ctx, newsID)
	if err != nil {
		return nil, err
	}

	attached := make([]models.NewsMedia, 0, len(items))
	principalTaken := false
	for _, data := range items {
		principal := data.IsPrincipal && !principalTaken
		if principal {
			principalTaken = true
		}

		media := s.newMedia(newsID, data, order, principal)
		if err := s.create(ctx, media); err != nil {
			return attached, err
		}
		attached = append(attached, *media)
		order++
	}
	return attached, nil
}

func (s *MediaOrderingServiceImpl) SetPrincipal(ctx context.Context, newsID, mediaID uuid.UUID) error {
	if err := s.mediaRepo.SetPrincipal(ctx, newsID, mediaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("media asset not found for this article")
		}
		return errs.Internal("failed to set principal media", err)
	}

	logger.Media("principal_set", "Principal media set", map[string]interface{}{
		"news_id":  newsID.String(),
		"media_id": mediaID.String(),
	})
	return nil
}

func (s *MediaOrderingServiceImpl) ClearPrincipal(ctx context.Context, newsID uuid.UUID) error {
	if err := s.mediaRepo.ClearPrincipal(ctx, newsID); err != nil {
		return errs.Internal("failed to clear principal media", err)
	}
	logger.Media("principal_cleared", "Principal media cleared", map[string]interface{}{"news_id": newsID.String()})
	return nil
}

// ReplacePrincipal drops the current principal (row and blob) and attaches data as the new one.
// The new asset takes the old principal's position; without a previous principal it is appended.
func (s *MediaOrderingServiceImpl) ReplacePrincipal(ctx context.Context, newsID uuid.UUID, data services.AssetData) (*models.NewsMedia, error) {
	if err := validateAssetData(data); err != nil {
		return nil, err
	}

	var order *int
	current, err := s.mediaRepo.GetPrincipal(ctx, newsID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, errs.Internal("failed to read principal media", err)
	default:
		if err := s.mediaRepo.Delete(ctx, current.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Internal("failed to remove principal media", err)
		}
		s.releaseBlob(ctx, current.URL)
		order = &current.SortOrder
	}

	if order == nil {
		next, err := s.nextOrder(ctx, newsID)
		if err != nil {
			return nil, err
		}
		order = &next
	}

	media := s.newMedia(newsID, data, *order, true)
	if err := s.create(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

// Reorder gives ids the orders 0..n-1. Assets left out keep their order unless it now
// collides with an assigned one; those move after the current maximum, keeping their relative order.
func (s *MediaOrderingServiceImpl) Reorder(ctx context.Context, newsID uuid.UUID, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return errs.Validationf("media %s is listed more than once", id)
		}
		seen[id] = true
	}

	items, err := s.mediaRepo.ListByNews(ctx, newsID)
	if err != nil {
		return errs.Internal("failed to list media", err)
	}

	current := make(map[uuid.UUID]int, len(items))
	for _, m := range items {
		current[m.ID] = m.SortOrder
	}

	orders := make(map[uuid.UUID]int, len(items))
	for i, id := range ids {
		if _, ok := current[id]; !ok {
			return errs.NotFound("media asset not found for this article")
		}
		orders[id] = i
	}

	n := len(ids)
	max := n - 1
	var displaced []uuid.UUID
	for _, m := range items {
		if seen[m.ID] {
			continue
		}
		if m.SortOrder >= 0 && m.SortOrder < n {
			displaced = append(displaced, m.ID)
			continue
		}
		if m.SortOrder > max {
			max = m.SortOrder
		}
	}
	for _, id := range displaced {
		max++
		orders[id] = max
	}

	changed := make(map[uuid.UUID]int, len(orders))
	for id, order := range orders {
		if current[id] != order {
			changed[id] = order
		}
	}

	if err := s.mediaRepo.UpdateSortOrders(ctx, newsID, changed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("media asset not found for this article")
		}
		return errs.Internal("failed to reorder media", err)
	}

	logger.Media("media_reordered", "Media reordered", map[string]interface{}{
		"news_id":   newsID.String(),
		"listed":    n,
		"displaced": len(displaced),
	})
	return nil
}

// Remove deletes one asset and its blob. Remaining orders are not renumbered.
func (s *MediaOrderingServiceImpl) Remove(ctx context.Context, mediaID uuid.UUID) (*models.NewsMedia, error) {
	media, err := s.mediaRepo.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("media asset not found")
		}
		return nil, errs.Internal("failed to get media", err)
	}

	if err := s.mediaRepo.Delete(ctx, mediaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("media asset not found")
		}
		return nil, errs.Internal("failed to delete media", err)
	}

	s.releaseBlob(ctx, media.URL)
	logger.Media("media_removed", "Media removed", map[string]interface{}{
		"news_id":  media.NewsID.String(),
		"media_id": mediaID.String(),
	})
	return media, nil
}

func (s *MediaOrderingServiceImpl) ListByArticle(ctx context.Context, newsID uuid.UUID) ([]models.NewsMedia, error) {
	items, err := s.mediaRepo.ListByNews(ctx, newsID)
	if err != nil {
		return nil, errs.Internal("failed to list media", err)
	}
	return items, nil
}

func (s *MediaOrderingServiceImpl) releaseBlob(ctx context.Context, url string) {
	releaseBlob(ctx, s.blobs, s.metrics, url)
}

// releaseBlob deletes a blob whose row is already gone. Failures are logged and counted, never returned.
func releaseBlob(ctx context.Context, blobs storage.BlobStore, m *metrics.Metrics, url string) {
	if blobs == nil || url == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), blobReleaseTimeout)
	defer cancel()

	if err := blobs.Delete(ctx, url); err != nil {
		warning := &errs.BlobCleanupWarning{URL: url, Err: err}
		m.RecordBlobCleanupFailure()
		logger.StorageWarn("blob_cleanup_failed", warning.Error(), err, map[string]interface{}{"url": url})
	}
}
