package dto

import (
	"musicschool-news/domain/models"
	"musicschool-news/domain/services"
)

const DateLayout = "2006-01-02"

func NewsMediaToResponse(media *models.NewsMedia) NewsMediaResponse {
	return NewsMediaResponse{
		ID:          media.ID,
		NewsID:      media.NewsID,
		URL:         media.URL,
		AltText:     media.AltText,
		SortOrder:   media.SortOrder,
		IsPrincipal: media.IsPrincipal,
		Kind:        string(media.Kind),
		MimeType:    media.MimeType,
		SizeBytes:   media.SizeBytes,
		UploadedAt:  media.UploadedAt,
	}
}

func NewsMediaListToResponse(items []models.NewsMedia) []NewsMediaResponse {
	responses := make([]NewsMediaResponse, 0, len(items))
	for i := range items {
		responses = append(responses, NewsMediaToResponse(&items[i]))
	}
	return responses
}

func NewsToSummaryResponse(news *models.News) NewsSummaryResponse {
	return NewsSummaryResponse{
		ID:          news.ID,
		Slug:        news.Slug,
		Title:       news.Title,
		Summary:     news.Summary,
		Author:      news.Author,
		Category:    news.Category,
		PublishedAt: news.PublishedAt.Format(DateLayout),
		Visible:     news.Visible,
		Featured:    news.Featured,
		ViewCount:   news.ViewCount,
		UpdatedAt:   news.UpdatedAt,
	}
}

func NewsDetailToResponse(detail *services.NewsDetail) *NewsResponse {
	if detail == nil || detail.News == nil {
		return nil
	}

	response := &NewsResponse{
		NewsSummaryResponse: NewsToSummaryResponse(detail.News),
		Body:                detail.News.Body,
		CreatedAt:           detail.News.CreatedAt,
		Media:               NewsMediaListToResponse(detail.Media),
	}
	for i := range response.Media {
		if response.Media[i].IsPrincipal {
			principal := response.Media[i]
			response.Principal = &principal
			break
		}
	}
	return response
}

func NewsPageToResponse(page *services.NewsPage) *NewsListResponse {
	items := make([]NewsSummaryResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewsToSummaryResponse(&page.Items[i]))
	}
	return &NewsListResponse{
		News:  items,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}
