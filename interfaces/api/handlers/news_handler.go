package handlers

import (
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"musicschool-news/domain/dto"
	"musicschool-news/domain/errs"
	"musicschool-news/domain/services"
	"musicschool-news/interfaces/api/middleware"
	"musicschool-news/pkg/utils"
)

const countViewHeader = "X-Count-View"

// multipart file fields, in the order they are attached
var mediaFields = []services.MediaRole{
	services.MediaRolePrincipal,
	services.MediaRoleGallery,
	services.MediaRoleFile,
}

type NewsHandler struct {
	newsService services.NewsService
	validate    *validator.Validate
}

func NewNewsHandler(newsService services.NewsService) *NewsHandler {
	return &NewsHandler{
		newsService: newsService,
		validate:    validator.New(),
	}
}

// ListNews returns visible articles without their body.
// @Summary List news
// @Tags News
// @Produce json
// @Param category query string false "Filter by category"
// @Param featured query string false "Filter by featured flag (true/false/1/0)"
// @Param include_hidden query string false "Include hidden articles (admin only)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} utils.Response{data=dto.NewsListResponse}
// @Router /api/v1/news [get]
func (h *NewsHandler) ListNews(c *fiber.Ctx) error {
	featured, err := utils.ParseOptionalBool("featured", c.Query("featured"))
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}
	includeHidden, err := utils.ParseOptionalBool("include_hidden", c.Query("include_hidden"))
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	page, err := h.newsService.List(c.UserContext(), services.NewsListQuery{
		Category:      c.Query("category"),
		Featured:      featured,
		IncludeHidden: includeHidden != nil && *includeHidden && middleware.IsAdmin(c),
		Page:          c.QueryInt("page", 1),
		Limit:         c.QueryInt("limit", 10),
	})
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	return utils.SuccessResponse(c, "News retrieved", dto.NewsPageToResponse(page))
}

// GetNewsBySlug returns one article with its media. X-Count-View: true asks for the view to be counted.
// @Summary Get news by slug
// @Tags News
// @Produce json
// @Param slug path string true "News slug"
// @Param X-Count-View header string false "Count this view (true/false)"
// @Success 200 {object} utils.Response{data=dto.NewsResponse}
// @Failure 404 {object} utils.Response
// @Router /api/v1/news/{slug} [get]
func (h *NewsHandler) GetNewsBySlug(c *fiber.Ctx) error {
	count, err := utils.ParseOptionalBool(countViewHeader, c.Get(countViewHeader))
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	detail, err := h.newsService.GetBySlug(c.UserContext(), c.Params("slug"), services.ViewContext{
		Count:         count != nil && *count,
		ClientKey:     clientKey(c),
		IncludeHidden: middleware.IsAdmin(c),
	})
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	return utils.SuccessResponse(c, "News retrieved", dto.NewsDetailToResponse(detail))
}

// GetNewsByID is the admin read, hidden articles included.
// @Summary Get news by ID
// @Tags News
// @Security BearerAuth
// @Produce json
// @Param id path string true "News ID"
// @Success 200 {object} utils.Response{data=dto.NewsResponse}
// @Router /api/v1/news/id/{id} [get]
func (h *NewsHandler) GetNewsByID(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	detail, err := h.newsService.GetByID(c.UserContext(), id)
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "News retrieved", dto.NewsDetailToResponse(detail))
}

// ListMedia returns the media of an article in display order.
// @Summary List news media
// @Tags News
// @Produce json
// @Param id path string true "News ID"
// @Success 200 {object} utils.Response{data=[]dto.NewsMediaResponse}
// @Router /api/v1/news/{id}/media [get]
func (h *NewsHandler) ListMedia(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	items, err := h.newsService.ListMedia(c.UserContext(), id, middleware.IsAdmin(c))
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "Media retrieved", dto.NewsMediaListToResponse(items))
}

// CreateNews accepts multipart/form-data (with files) or JSON.
// @Summary Create news
// @Tags News
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param request body dto.CreateNewsRequest false "News without files"
// @Param principal formData file false "Principal image"
// @Param gallery formData file false "Gallery media"
// @Success 201 {object} utils.Response{data=dto.NewsResponse}
// @Router /api/v1/news [post]
func (h *NewsHandler) CreateNews(c *fiber.Ctx) error {
	var input services.CreateNewsInput
	var err error
	if isMultipart(c) {
		input, err = h.parseCreateForm(c)
	} else {
		input, err = h.parseCreateJSON(c)
	}
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	detail, err := h.newsService.Create(c.UserContext(), input)
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.CreatedResponse(c, "News created", dto.NewsDetailToResponse(detail))
}

// UpdateNews applies a partial update; fields that are not sent keep their value.
// @Summary Update news
// @Tags News
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param id path string true "News ID"
// @Param request body dto.UpdateNewsRequest false "Fields to change"
// @Success 200 {object} utils.Response{data=dto.NewsResponse}
// @Router /api/v1/news/{id} [put]
func (h *NewsHandler) UpdateNews(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	var input services.UpdateNewsInput
	if isMultipart(c) {
		input, err = h.parseUpdateForm(c)
	} else {
		input, err = h.parseUpdateJSON(c)
	}
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	detail, err := h.newsService.Update(c.UserContext(), id, input)
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "News updated", dto.NewsDetailToResponse(detail))
}

// DeleteNews removes an article, its media rows and their blobs.
// @Summary Delete news
// @Tags News
// @Security BearerAuth
// @Param id path string true "News ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/news/{id} [delete]
func (h *NewsHandler) DeleteNews(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	if err := h.newsService.Delete(c.UserContext(), id); err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "News deleted", nil)
}

// @Summary Delete news media
// @Tags News
// @Security BearerAuth
// @Param assetId path string true "Media ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/news/media/{assetId} [delete]
func (h *NewsHandler) DeleteMedia(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "assetId")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	if err := h.newsService.RemoveMedia(c.UserContext(), id); err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "Media deleted", nil)
}

// ReorderMedia assigns positions 0..n-1 to the listed media.
// @Summary Reorder news media
// @Tags News
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "News ID"
// @Param request body dto.ReorderMediaRequest true "Media IDs in display order"
// @Success 200 {object} utils.Response{data=[]dto.NewsMediaResponse}
// @Router /api/v1/news/{id}/media/order [put]
func (h *NewsHandler) ReorderMedia(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	var req dto.ReorderMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorFromErr(c, errs.Validation("invalid request body"))
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.ErrorFromErr(c, errs.Validation(err.Error()))
	}

	ids, err := parseUUIDs(req.IDs)
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	items, err := h.newsService.ReorderMedia(c.UserContext(), id, ids)
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "Media reordered", dto.NewsMediaListToResponse(items))
}

// @Summary Set principal media
// @Tags News
// @Security BearerAuth
// @Param id path string true "News ID"
// @Param assetId path string true "Media ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/news/{id}/media/{assetId}/principal [put]
func (h *NewsHandler) SetPrincipal(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}
	assetID, err := parseUUIDParam(c, "assetId")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	if err := h.newsService.SetPrincipal(c.UserContext(), id, assetID); err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "Principal media set", nil)
}

// @Summary Clear principal media
// @Tags News
// @Security BearerAuth
// @Param id path string true "News ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/news/{id}/media/principal [delete]
func (h *NewsHandler) ClearPrincipal(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	if err := h.newsService.ClearPrincipal(c.UserContext(), id); err != nil {
		return utils.ErrorFromErr(c, err)
	}
	return utils.SuccessResponse(c, "Principal media cleared", nil)
}

func (h *NewsHandler) parseCreateJSON(c *fiber.Ctx) (services.CreateNewsInput, error) {
	var req dto.CreateNewsRequest
	if err := c.BodyParser(&req); err != nil {
		return services.CreateNewsInput{}, bodyError(err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return services.CreateNewsInput{}, errs.Validation(err.Error())
	}

	publishedAt, err := parseDate("published_at", req.PublishedAt)
	if err != nil {
		return services.CreateNewsInput{}, err
	}

	return services.CreateNewsInput{
		Title:       req.Title,
		Body:        req.Body,
		Summary:     req.Summary,
		Author:      req.Author,
		Category:    req.Category,
		PublishedAt: publishedAt,
		Visible:     req.Visible.Ptr(),
		Featured:    req.Featured.Ptr(),
	}, nil
}

func (h *NewsHandler) parseUpdateJSON(c *fiber.Ctx) (services.UpdateNewsInput, error) {
	var req dto.UpdateNewsRequest
	if err := c.BodyParser(&req); err != nil {
		return services.UpdateNewsInput{}, bodyError(err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return services.UpdateNewsInput{}, errs.Validation(err.Error())
	}

	input := services.UpdateNewsInput{
		Title:          req.Title,
		Body:           req.Body,
		Summary:        req.Summary,
		Author:         req.Author,
		Category:       req.Category,
		Visible:        req.Visible.Ptr(),
		Featured:       req.Featured.Ptr(),
		ClearPrincipal: req.ClearPrincipal.True(),
	}

	if req.PublishedAt != nil {
		publishedAt, err := parseDate("published_at", *req.PublishedAt)
		if err != nil {
			return input, err
		}
		input.PublishedAt = publishedAt
	}
	if req.PrincipalMediaID != nil {
		id, err := parseUUID("principal_media_id", *req.PrincipalMediaID)
		if err != nil {
			return input, err
		}
		input.PrincipalMediaID = &id
	}
	if len(req.MediaOrder) > 0 {
		ids, err := parseUUIDs(req.MediaOrder)
		if err != nil {
			return input, err
		}
		input.MediaOrder = ids
	}
	return input, nil
}

func (h *NewsHandler) parseCreateForm(c *fiber.Ctx) (services.CreateNewsInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return services.CreateNewsInput{}, errs.Validation("invalid multipart form")
	}

	input := services.CreateNewsInput{
		Title:    formValue(form, "title"),
		Body:     formValue(form, "body"),
		Author:   formValue(form, "author"),
		Category: formValue(form, "category"),
	}
	if summary, ok := formField(form, "summary"); ok {
		input.Summary = &summary
	}
	if input.PublishedAt, err = parseDate("published_at", formValue(form, "published_at")); err != nil {
		return input, err
	}
	if input.Visible, err = utils.ParseOptionalBool("visible", formValue(form, "visible")); err != nil {
		return input, err
	}
	if input.Featured, err = utils.ParseOptionalBool("featured", formValue(form, "featured")); err != nil {
		return input, err
	}
	if input.Media, err = readUploads(form); err != nil {
		return input, err
	}
	return input, nil
}

func (h *NewsHandler) parseUpdateForm(c *fiber.Ctx) (services.UpdateNewsInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return services.UpdateNewsInput{}, errs.Validation("invalid multipart form")
	}

	var input services.UpdateNewsInput
	for field, target := range map[string]**string{
		"title":    &input.Title,
		"body":     &input.Body,
		"summary":  &input.Summary,
		"author":   &input.Author,
		"category": &input.Category,
	} {
		if value, ok := formField(form, field); ok {
			v := value
			*target = &v
		}
	}

	if input.PublishedAt, err = parseDate("published_at", formValue(form, "published_at")); err != nil {
		return input, err
	}
	if input.Visible, err = utils.ParseOptionalBool("visible", formValue(form, "visible")); err != nil {
		return input, err
	}
	if input.Featured, err = utils.ParseOptionalBool("featured", formValue(form, "featured")); err != nil {
		return input, err
	}

	clearPrincipal, err := utils.ParseOptionalBool("clear_principal", formValue(form, "clear_principal"))
	if err != nil {
		return input, err
	}
	input.ClearPrincipal = clearPrincipal != nil && *clearPrincipal

	if raw := strings.TrimSpace(formValue(form, "principal_media_id")); raw != "" {
		id, err := parseUUID("principal_media_id", raw)
		if err != nil {
			return input, err
		}
		input.PrincipalMediaID = &id
	}

	if raw := strings.TrimSpace(formValue(form, "media_order")); raw != "" {
		ids, err := parseUUIDs(strings.Split(raw, ","))
		if err != nil {
			return input, err
		}
		input.MediaOrder = ids
	}

	if input.Media, err = readUploads(form); err != nil {
		return input, err
	}
	return input, nil
}

// readUploads collects files from the principal, gallery and files fields, in that order.
// "<field>_alt_text" overrides "alt_text" for the files of that field.
func readUploads(form *multipart.Form) ([]services.MediaUpload, error) {
	defaultAlt := formValue(form, "alt_text")

	var uploads []services.MediaUpload
	for _, role := range mediaFields {
		altText := defaultAlt
		if alt, ok := formField(form, string(role)+"_alt_text"); ok {
			altText = alt
		}

		for _, fh := range form.File[string(role)] {
			data, err := readFile(fh)
			if err != nil {
				return nil, errs.Validationf("failed to read file %q", fh.Filename)
			}
			uploads = append(uploads, services.MediaUpload{
				Role:     role,
				FileName: fh.Filename,
				MimeType: fh.Header.Get("Content-Type"),
				AltText:  altText,
				Data:     data,
			})
		}
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func formField(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func formValue(form *multipart.Form, key string) string {
	value, _ := formField(form, key)
	return value
}

// clientKey identifies a reader for view deduplication.
func clientKey(c *fiber.Ctx) string {
	return c.IP() + "|" + c.Get(fiber.HeaderUserAgent)
}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dto.DateLayout, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	return nil, errs.Validationf("%s must be a date (YYYY-MM-DD)", field)
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errs.Validationf("invalid %s", field)
	}
	return id, nil
}

// bodyError keeps field validation messages and hides JSON syntax details.
func bodyError(err error) error {
	if errs.Is(err, errs.KindValidation) {
		return err
	}
	return errs.Validation("invalid request body")
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return parseUUID(name, c.Params(name))
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		id, err := parseUUID("media id", r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
