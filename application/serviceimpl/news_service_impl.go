package serviceimpl

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
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

const (
	defaultPageSize = 10
	maxPageSize     = 100

	blobFolder = "news"
)

type NewsServiceDeps struct {
	NewsRepo      repositories.NewsRepository
	MediaRepo     repositories.NewsMediaRepository
	Slugs         services.SlugAllocator
	Media         services.MediaOrderingService
	Views         services.ViewCounterCache
	Blobs         storage.BlobStore
	Events        services.NewsEventPublisher
	Metrics       *metrics.Metrics
	Clock         clock.Clock
	Locks         *ArticleLocker
	MaxMediaBytes int64 // 0 disables the check
}

type NewsServiceImpl struct {
	newsRepo      repositories.NewsRepository
	mediaRepo     repositories.NewsMediaRepository
	slugs         services.SlugAllocator
	media         services.MediaOrderingService
	views         services.ViewCounterCache
	blobs         storage.BlobStore
	events        services.NewsEventPublisher
	metrics       *metrics.Metrics
	clock         clock.Clock
	locks         *ArticleLocker
	maxMediaBytes int64
}

func NewNewsService(deps NewsServiceDeps) services.NewsService {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Locks == nil {
		deps.Locks = NewArticleLocker()
	}
	return &NewsServiceImpl{
		newsRepo:      deps.NewsRepo,
		mediaRepo:     deps.MediaRepo,
		slugs:         deps.Slugs,
		media:         deps.Media,
		views:         deps.Views,
		blobs:         deps.Blobs,
		events:        deps.Events,
		metrics:       deps.Metrics,
		clock:         deps.Clock,
		locks:         deps.Locks,
		maxMediaBytes: deps.MaxMediaBytes,
	}
}

// preparedUpload is a validated upload whose kind is known.
type preparedUpload struct {
	services.MediaUpload
	kind     models.MediaKind
	mimeType string
}

// storedUpload is an upload that already lives in the blob store.
type storedUpload struct {
	preparedUpload
	url string
}

func (s *NewsServiceImpl) findNews(ctx context.Context, id uuid.UUID) (*models.News, error) {
	news, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("news not found")
		}
		return nil, errs.Internal("failed to get news", err)
	}
	return news, nil
}

func (s *NewsServiceImpl) detail(ctx context.Context, news *models.News) (*services.NewsDetail, error) {
	media, err := s.media.ListByArticle(ctx, news.ID)
	if err != nil {
		return nil, err
	}
	return &services.NewsDetail{News: news, Media: media}, nil
}

func (s *NewsServiceImpl) publish(eventType services.NewsEventType, news *models.News) {
	if s.events == nil || news == nil {
		return
	}
	s.events.Publish(services.NewsEvent{
		Type:       eventType,
		NewsID:     news.ID,
		Slug:       news.Slug,
		Visible:    news.Visible,
		OccurredAt: s.clock.Now(),
	})
}

func (s *NewsServiceImpl) List(ctx context.Context, query services.NewsListQuery) (*services.NewsPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, total, err := s.newsRepo.List(ctx, repositories.NewsListFilter{
		IncludeHidden: query.IncludeHidden,
		Category:      strings.TrimSpace(query.Category),
		Featured:      query.Featured,
		Offset:        (page - 1) * limit,
		Limit:         limit,
	})
	if err != nil {
		return nil, errs.Internal("failed to list news", err)
	}

	return &services.NewsPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetBySlug always returns the article; the view cache only decides whether the counter moves.
func (s *NewsServiceImpl) GetBySlug(ctx context.Context, slug string, view services.ViewContext) (*services.NewsDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errs.NotFound("news not found")
	}

	news, err := s.newsRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("news not found")
		}
		return nil, errs.Internal("failed to get news", err)
	}
	if !news.Visible && !view.IncludeHidden {
		return nil, errs.NotFound("news not found")
	}

	if view.Count {
		s.countView(ctx, news, view.ClientKey)
	}

	return s.detail(ctx, news)
}

func (s *NewsServiceImpl) countView(ctx context.Context, news *models.News, clientKey string) {
	if s.views == nil {
		s.metrics.RecordView(metrics.ViewSkipped)
		return
	}
	if clientKey == "" {
		clientKey = "anonymous"
	}

	if !s.views.ShouldCountView(ctx, news.ID.String(), clientKey, s.clock.Now()) {
		s.metrics.RecordView(metrics.ViewDuplicate)
		return
	}

	if err := s.newsRepo.IncrementViewCount(ctx, news.ID); err != nil {
		s.metrics.RecordView(metrics.ViewFailed)
		logger.NewsError("view_count_failed", "Failed to increment view count", err, map[string]interface{}{
			"news_id": news.ID.String(),
		})
		return
	}
	news.ViewCount++
	s.metrics.RecordView(metrics.ViewCounted)
}

func (s *NewsServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*services.NewsDetail, error) {
	news, err := s.findNews(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, news)
}

func (s *NewsServiceImpl) ListMedia(ctx context.Context, newsID uuid.UUID, includeHidden bool) ([]models.NewsMedia, error) {
	news, err := s.findNews(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if !news.Visible && !includeHidden {
		return nil, errs.NotFound("news not found")
	}
	return s.media.ListByArticle(ctx, newsID)
}

func (s *NewsServiceImpl) Create(ctx context.Context, input services.CreateNewsInput) (*services.NewsDetail, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errs.Validation("title is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, errs.Validation("body is required")
	}

	uploads, err := s.prepareUploads(input.Media)
	if err != nil {
		return nil, err
	}

	slug, err := s.slugs.Allocate(ctx, title, nil)
	if err != nil {
		return nil, err
	}

	news := &models.News{
		Slug:        slug,
		Title:       title,
		Body:        input.Body,
		Summary:     input.Summary,
		Author:      strings.TrimSpace(input.Author),
		Category:    strings.TrimSpace(input.Category),
		PublishedAt: s.clock.Now().UTC(),
		Visible:     true,
	}
	if input.PublishedAt != nil {
		news.PublishedAt = *input.PublishedAt
	}
	if input.Visible != nil {
		news.Visible = *input.Visible
	}
	if input.Featured != nil {
		news.Featured = *input.Featured
	}

	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	if err := s.insertWithRetry(ctx, news); err != nil {
		s.releaseStored(ctx, stored)
		return nil, err
	}

	assets := make([]services.AssetData, 0, len(stored))
	for _, u := range stored {
		assets = append(assets, u.assetData(u.Role == services.MediaRolePrincipal))
	}
	if err := s.attachStored(ctx, news.ID, stored, assets); err != nil {
		return nil, err
	}

	logger.News("news_created", "News created", map[string]interface{}{
		"news_id": news.ID.String(),
		"slug":    news.Slug,
		"media":   len(assets),
	})
	s.publish(services.NewsEventCreated, news)

	return s.detail(ctx, news)
}

// insertWithRetry allocates a fresh slug once when the insert loses a race for its slug.
func (s *NewsServiceImpl) insertWithRetry(ctx context.Context, news *models.News) error {
	err := s.newsRepo.Insert(ctx, news)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrDuplicateSlug) {
		return errs.Internal("failed to create news", err)
	}

	logger.News("slug_retry", "Slug taken during insert, allocating again", map[string]interface{}{"slug": news.Slug})
	slug, allocErr := s.slugs.Allocate(ctx, news.Title, nil)
	if allocErr != nil {
		return allocErr
	}
	news.Slug = slug
	news.ID = uuid.Nil

	if err := s.newsRepo.Insert(ctx, news); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSlug) {
			return errs.Conflict("slug is already in use", err)
		}
		return errs.Internal("failed to create news", err)
	}
	return nil
}

func validatePrincipalInstructions(input services.UpdateNewsInput) error {
	principalUpload := false
	for _, m := range input.Media {
		if m.Role == services.MediaRolePrincipal {
			principalUpload = true
			break
		}
	}

	if input.ClearPrincipal && (input.PrincipalMediaID != nil || principalUpload) {
		return errs.Validation("clear_principal cannot be combined with another principal selection")
	}
	if input.PrincipalMediaID != nil && principalUpload {
		return errs.Validation("principal_media_id cannot be combined with a principal upload")
	}
	return nil
}

func (s *NewsServiceImpl) Update(ctx context.Context, id uuid.UUID, input services.UpdateNewsInput) (*services.NewsDetail, error) {
	if err := validatePrincipalInstructions(input); err != nil {
		return nil, err
	}
	uploads, err := s.prepareUploads(input.Media)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	news, err := s.findNews(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(ctx, news, input)
	if err != nil {
		return nil, err
	}
	if !patch.IsEmpty() {
		if err := s.updateWithRetry(ctx, news, &patch); err != nil {
			return nil, err
		}
	}

	if input.ClearPrincipal {
		if err := s.media.ClearPrincipal(ctx, id); err != nil {
			return nil, err
		}
	}
	if input.PrincipalMediaID != nil {
		if err := s.media.SetPrincipal(ctx, id, *input.PrincipalMediaID); err != nil {
			return nil, err
		}
	}

	if len(uploads) > 0 {
		if err := s.attachUpdateMedia(ctx, id, uploads); err != nil {
			return nil, err
		}
	}

	if len(input.MediaOrder) > 0 {
		if err := s.media.Reorder(ctx, id, input.MediaOrder); err != nil {
			return nil, err
		}
	}

	news, err = s.findNews(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.News("news_updated", "News updated", map[string]interface{}{
		"news_id": id.String(),
		"fields":  len(patch.Columns()),
		"media":   len(uploads),
	})
	s.publish(services.NewsEventUpdated, news)

	return s.detail(ctx, news)
}

// buildPatch keeps the slug unless the title actually changes.
func (s *NewsServiceImpl) buildPatch(ctx context.Context, news *models.News, input services.UpdateNewsInput) (models.NewsPatch, error) {
	patch := models.NewsPatch{
		Summary:     input.Summary,
		PublishedAt: input.PublishedAt,
		Visible:     input.Visible,
		Featured:    input.Featured,
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return patch, errs.Validation("title must not be empty")
		}
		if title != news.Title {
			patch.Title = &title
			slug, err := s.slugs.Allocate(ctx, title, &news.ID)
			if err != nil {
				return patch, err
			}
			if slug != news.Slug {
				patch.Slug = &slug
			}
		}
	}
	if input.Body != nil {
		if strings.TrimSpace(*input.Body) == "" {
			return patch, errs.Validation("body must not be empty")
		}
		patch.Body = input.Body
	}
	if input.Author != nil {
		author := strings.TrimSpace(*input.Author)
		patch.Author = &author
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		patch.Category = &category
	}
	return patch, nil
}

func (s *NewsServiceImpl) updateWithRetry(ctx context.Context, news *models.News, patch *models.NewsPatch) error {
	err := s.newsRepo.UpdateFields(ctx, news.ID, *patch)
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound("news not found")
	}
	if !errors.Is(err, repositories.ErrDuplicateSlug) || patch.Title == nil {
		return errs.Internal("failed to update news", err)
	}

	slug, allocErr := s.slugs.Allocate(ctx, *patch.Title, &news.ID)
	if allocErr != nil {
		return allocErr
	}
	patch.Slug = &slug

	if err := s.newsRepo.UpdateFields(ctx, news.ID, *patch); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateSlug):
			return errs.Conflict("slug is already in use", err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return errs.NotFound("news not found")
		}
		return errs.Internal("failed to update news", err)
	}
	return nil
}

// attachUpdateMedia replaces the principal with the first principal upload and appends the rest.
func (s *NewsServiceImpl) attachUpdateMedia(ctx context.Context, newsID uuid.UUID, uploads []preparedUpload) error {
	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return err
	}

	var rest []storedUpload
	var assets []services.AssetData
	replaced := false
	for i, u := range stored {
		if u.Role == services.MediaRolePrincipal && !replaced {
			replaced = true
			if _, err := s.media.ReplacePrincipal(ctx, newsID, u.assetData(true)); err != nil {
				s.releaseStored(ctx, stored[i:])
				return err
			}
			continue
		}
		rest = append(rest, u)
		assets = append(assets, u.assetData(false))
	}

	return s.attachStored(ctx, newsID, rest, assets)
}

// attachStored attaches assets built from stored, in order, and releases the blobs of the
// uploads that did not get a media row.
func (s *NewsServiceImpl) attachStored(ctx context.Context, newsID uuid.UUID, stored []storedUpload, assets []services.AssetData) error {
	attached, err := s.media.AttachBatch(ctx, newsID, assets)
	if err == nil {
		return nil
	}

	if len(attached) < len(stored) {
		s.releaseStored(ctx, stored[len(attached):])
	}
	logger.MediaError("attach_failed", "Failed to attach stored media", err, map[string]interface{}{
		"news_id":    newsID.String(),
		"attached":   len(attached),
		"unattached": len(stored) - len(attached),
	})
	return err
}

func (s *NewsServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	news, err := s.findNews(ctx, id)
	if err != nil {
		return err
	}

	media, err := s.media.ListByArticle(ctx, id)
	if err != nil {
		return err
	}

	if err := s.newsRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("news not found")
		}
		return errs.Internal("failed to delete news", err)
	}

	for _, m := range media {
		releaseBlob(ctx, s.blobs, s.metrics, m.URL)
	}

	logger.News("news_deleted", "News deleted", map[string]interface{}{
		"news_id": id.String(),
		"slug":    news.Slug,
		"media":   len(media),
	})
	s.publish(services.NewsEventDeleted, news)
	return nil
}

func (s *NewsServiceImpl) RemoveMedia(ctx context.Context, mediaID uuid.UUID) error {
	media, err := s.mediaRepo.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("media asset not found")
		}
		return errs.Internal("failed to get media", err)
	}

	unlock := s.locks.Lock(media.NewsID)
	defer unlock()

	if _, err := s.media.Remove(ctx, mediaID); err != nil {
		return err
	}
	s.publishByID(ctx, media.NewsID)
	return nil
}

func (s *NewsServiceImpl) SetPrincipal(ctx context.Context, newsID, mediaID uuid.UUID) error {
	unlock := s.locks.Lock(newsID)
	defer unlock()

	news, err := s.findNews(ctx, newsID)
	if err != nil {
		return err
	}
	if err := s.media.SetPrincipal(ctx, newsID, mediaID); err != nil {
		return err
	}
	s.publish(services.NewsEventUpdated, news)
	return nil
}

func (s *NewsServiceImpl) ClearPrincipal(ctx context.Context, newsID uuid.UUID) error {
	unlock := s.locks.Lock(newsID)
	defer unlock()

	news, err := s.findNews(ctx, newsID)
	if err != nil {
		return err
	}
	if err := s.media.ClearPrincipal(ctx, newsID); err != nil {
		return err
	}
	s.publish(services.NewsEventUpdated, news)
	return nil
}

func (s *NewsServiceImpl) ReorderMedia(ctx context.Context, newsID uuid.UUID, ids []uuid.UUID) ([]models.NewsMedia, error) {
	unlock := s.locks.Lock(newsID)
	defer unlock()

	news, err := s.findNews(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if err := s.media.Reorder(ctx, newsID, ids); err != nil {
		return nil, err
	}
	s.publish(services.NewsEventUpdated, news)
	return s.media.ListByArticle(ctx, newsID)
}

func (s *NewsServiceImpl) publishByID(ctx context.Context, newsID uuid.UUID) {
	if s.events == nil {
		return
	}
	news, err := s.newsRepo.FindByID(ctx, newsID)
	if err != nil {
		return
	}
	s.publish(services.NewsEventUpdated, news)
}

var roleRank = map[services.MediaRole]int{
	services.MediaRolePrincipal: 0,
	services.MediaRoleGallery:   1,
	services.MediaRoleFile:      2,
}

// prepareUploads checks size and kind before anything is stored, and orders the batch
// principal first, then gallery, then files, keeping arrival order inside each role.
func (s *NewsServiceImpl) prepareUploads(uploads []services.MediaUpload) ([]preparedUpload, error) {
	prepared := make([]preparedUpload, 0, len(uploads))
	for _, u := range uploads {
		if len(u.Data) == 0 {
			return nil, errs.Validationf("file %q is empty", u.FileName)
		}
		if s.maxMediaBytes > 0 && int64(len(u.Data)) > s.maxMediaBytes {
			return nil, errs.Validationf("file %q exceeds the maximum size of %d bytes", u.FileName, s.maxMediaBytes)
		}
		if _, ok := roleRank[u.Role]; !ok {
			u.Role = services.MediaRoleFile
		}

		kind, mimeType, ok := detectUpload(u)
		if !ok {
			return nil, errs.Validationf("file %q is not an image, gif or video", u.FileName)
		}
		prepared = append(prepared, preparedUpload{MediaUpload: u, kind: kind, mimeType: mimeType})
	}

	sort.SliceStable(prepared, func(i, j int) bool {
		return roleRank[prepared[i].Role] < roleRank[prepared[j].Role]
	})
	return prepared, nil
}

// detectUpload trusts the file content first, then the declared type and file name.
func detectUpload(u services.MediaUpload) (models.MediaKind, string, bool) {
	sniffed := mimetype.Detect(u.Data)
	if kind, ok := models.DetectMediaKind(sniffed.String(), ""); ok {
		return kind, sniffed.String(), true
	}
	if kind, ok := models.DetectMediaKind(u.MimeType, u.FileName); ok {
		mimeType := u.MimeType
		if mimeType == "" {
			mimeType = sniffed.String()
		}
		return kind, mimeType, true
	}
	return "", "", false
}

func (s *NewsServiceImpl) storeUploads(ctx context.Context, uploads []preparedUpload) ([]storedUpload, error) {
	if len(uploads) > 0 && s.blobs == nil {
		return nil, errs.Upload("media storage is not configured", nil)
	}

	stored := make([]storedUpload, 0, len(uploads))
	for _, u := range uploads {
		start := time.Now()
		url, err := s.blobs.Store(ctx, u.Data, storage.BlobMetadata{
			Folder:      blobFolder,
			FileName:    u.FileName,
			ContentType: u.mimeType,
		})
		if err != nil {
			logger.StorageWarn("blob_store_failed", "Failed to store media", err, map[string]interface{}{
				"file_name": u.FileName,
				"size":      len(u.Data),
			})
			s.releaseStored(ctx, stored)
			return nil, errs.Upload("failed to upload media", err)
		}
		logger.Storage("blob_stored", "Media stored", map[string]interface{}{
			"url":         url,
			"size":        len(u.Data),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		stored = append(stored, storedUpload{preparedUpload: u, url: url})
	}
	return stored, nil
}

func (s *NewsServiceImpl) releaseStored(ctx context.Context, stored []storedUpload) {
	for _, u := range stored {
		releaseBlob(ctx, s.blobs, s.metrics, u.url)
	}
}

func (u storedUpload) assetData(principal bool) services.AssetData {
	return services.AssetData{
		URL:         u.url,
		AltText:     u.AltText,
		MimeType:    u.mimeType,
		Kind:        u.kind,
		SizeBytes:   int64(len(u.Data)),
		IsPrincipal: principal,
	}
}
