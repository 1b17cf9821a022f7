package serviceimpl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicschool-news/domain/errs"
	"musicschool-news/domain/models"
	"musicschool-news/domain/repositories"
	"musicschool-news/domain/services"
)

// racyNewsRepo lets another writer take the slug right before Insert runs.
type racyNewsRepo struct {
	repositories.NewsRepository
	steal           int
	alwaysDuplicate bool
}

func (r *racyNewsRepo) Insert(ctx context.Context, news *models.News) error {
	if r.alwaysDuplicate {
		return repositories.ErrDuplicateSlug
	}
	if r.steal > 0 {
		r.steal--
		thief := &models.News{Slug: news.Slug, Title: news.Title, Body: "otro", Visible: true, PublishedAt: news.PublishedAt}
		if err := r.NewsRepository.Insert(ctx, thief); err != nil {
			return err
		}
	}
	return r.NewsRepository.Insert(ctx, news)
}

func TestNewsService_ConciertoDePrimavera(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first := env.createNews(t, "Concierto de Primavera")
	second := env.createNews(t, "Concierto de Primavera")
	assert.Equal(t, "concierto-de-primavera", first.Slug)
	assert.Equal(t, "concierto-de-primavera-1", second.Slug)
	assert.Equal(t, int64(0), first.ViewCount)

	attached, err := env.media.AttachBatch(ctx, first.ID, []services.AssetData{
		imageAsset("escenario.png", true),
		imageAsset("publico.png", false),
		imageAsset("orquesta.png", false),
	})
	require.NoError(t, err)

	items, err := env.service.ListMedia(ctx, first.ID, true)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, attached[0].ID, items[0].ID)
	assert.True(t, items[0].IsPrincipal)
	assert.Equal(t, 1, items[1].SortOrder)
	assert.Equal(t, 2, items[2].SortOrder)

	require.NoError(t, env.service.SetPrincipal(ctx, first.ID, attached[2].ID))
	items, err = env.service.ListMedia(ctx, first.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{attached[2].ID}, principalIDs(items))

	view := services.ViewContext{Count: true, ClientKey: "10.0.0.7|Mozilla/5.0"}

	detail, err := env.service.GetBySlug(ctx, "concierto-de-primavera", view)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.News.ViewCount)
	assert.Len(t, detail.Media, 3)

	env.clock.Advance(2 * time.Second)
	detail, err = env.service.GetBySlug(ctx, "concierto-de-primavera", view)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.News.ViewCount, "repeat read inside the window is not counted")
	assert.NotEmpty(t, detail.News.Body, "suppressed views still get the content")

	env.clock.Advance(16 * time.Second)
	detail, err = env.service.GetBySlug(ctx, "concierto-de-primavera", view)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.News.ViewCount)

	stored, err := env.newsRepo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.ViewCount)
}

func TestNewsService_GetBySlug(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	news := env.createNews(t, "Recital de guitarra")

	t.Run("view not requested", func(t *testing.T) {
		detail, err := env.service.GetBySlug(ctx, news.Slug, services.ViewContext{ClientKey: "c"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), detail.News.ViewCount)
		assert.Equal(t, 0, env.views.Len())
	})

	t.Run("slug lookup ignores case", func(t *testing.T) {
		_, err := env.service.GetBySlug(ctx, "RECITAL-DE-GUITARRA", services.ViewContext{})
		assert.NoError(t, err)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := env.service.GetBySlug(ctx, "no-existe", services.ViewContext{})
		assert.True(t, errs.Is(err, errs.KindNotFound))
	})

	t.Run("hidden article", func(t *testing.T) {
		hidden := false
		_, err := env.service.Update(ctx, news.ID, services.UpdateNewsInput{Visible: &hidden})
		require.NoError(t, err)

		_, err = env.service.GetBySlug(ctx, news.Slug, services.ViewContext{})
		assert.True(t, errs.Is(err, errs.KindNotFound))

		detail, err := env.service.GetBySlug(ctx, news.Slug, services.ViewContext{IncludeHidden: true})
		require.NoError(t, err)
		assert.False(t, detail.News.Visible)

		_, err = env.service.ListMedia(ctx, news.ID, false)
		assert.True(t, errs.Is(err, errs.KindNotFound))
		_, err = env.service.ListMedia(ctx, news.ID, true)
		assert.NoError(t, err)
	})
}

func TestNewsService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input services.CreateNewsInput
		kind  errs.Kind
	}{
		{"missing title", services.CreateNewsInput{Body: "texto"}, errs.KindValidation},
		{"blank body", services.CreateNewsInput{Title: "Título", Body: "   "}, errs.KindValidation},
		{"title without slug characters", services.CreateNewsInput{Title: "¡¿?!", Body: "texto"}, errs.KindValidation},
		{"unsupported file", services.CreateNewsInput{Title: "Partituras", Body: "texto", Media: []services.MediaUpload{
			{Role: services.MediaRoleFile, FileName: "partitura.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.7")},
		}}, errs.KindValidation},
		{"oversized file", services.CreateNewsInput{Title: "Video", Body: "texto", Media: []services.MediaUpload{
			{Role: services.MediaRoleGallery, FileName: "big.png", Data: make([]byte, 2<<20)},
		}}, errs.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Create(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}

	page, err := env.service.List(ctx, services.NewsListQuery{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total, "nothing was persisted")
	assert.Equal(t, 0, env.blobs.count(), "nothing was stored")
}

func TestNewsService_CreateWithMedia(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	summary := "Resumen"
	featured := true

	detail, err := env.service.Create(ctx, services.CreateNewsInput{
		Title:    "Audiciones abiertas",
		Body:     "Inscripciones hasta el viernes",
		Summary:  &summary,
		Category: "avisos",
		Featured: &featured,
		Media: []services.MediaUpload{
			{Role: services.MediaRoleFile, FileName: "loop.gif", Data: gifBytes("f")},
			{Role: services.MediaRoleGallery, FileName: "g1.png", AltText: "galería", Data: pngBytes("g1")},
			{Role: services.MediaRolePrincipal, FileName: "cover.png", AltText: "portada", Data: pngBytes("p")},
			{Role: services.MediaRolePrincipal, FileName: "cover2.png", Data: pngBytes("p2")},
		},
	})
	require.NoError(t, err)

	assert.True(t, detail.News.Visible, "visible defaults to true")
	assert.True(t, detail.News.Featured)
	assert.True(t, detail.News.PublishedAt.Equal(testStart))

	require.Len(t, detail.Media, 4)
	assert.Equal(t, "portada", detail.Media[0].AltText)
	assert.True(t, detail.Media[0].IsPrincipal)
	assert.False(t, detail.Media[1].IsPrincipal, "only the first principal upload wins")
	assert.Equal(t, "galería", detail.Media[2].AltText)
	assert.Equal(t, models.MediaKindGIF, detail.Media[3].Kind)
	assert.Equal(t, "image/png", detail.Media[0].MimeType)
	assert.Equal(t, 4, env.blobs.count())

	assert.Equal(t, []services.NewsEventType{services.NewsEventCreated}, env.events.types())
}

func TestNewsService_CreateUploadFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.blobs.failStore = true

	_, err := env.service.Create(ctx, services.CreateNewsInput{
		Title: "Concierto",
		Body:  "texto",
		Media: []services.MediaUpload{{Role: services.MediaRolePrincipal, FileName: "a.png", Data: pngBytes("a")}},
	})
	assert.True(t, errs.Is(err, errs.KindUpload))

	page, err := env.service.List(ctx, services.NewsListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}

func TestNewsService_CreateRetriesOnceOnDuplicateSlug(t *testing.T) {
	ctx := context.Background()

	t.Run("second allocation succeeds", func(t *testing.T) {
		env := newTestEnv(t)
		service := env.newService(&racyNewsRepo{NewsRepository: env.newsRepo, steal: 1})

		detail, err := service.Create(ctx, services.CreateNewsInput{Title: "Recital", Body: "texto"})
		require.NoError(t, err)
		assert.Equal(t, "recital-1", detail.News.Slug)
	})

	t.Run("second failure is a conflict", func(t *testing.T) {
		env := newTestEnv(t)
		service := env.newService(&racyNewsRepo{NewsRepository: env.newsRepo, alwaysDuplicate: true})

		_, err := service.Create(ctx, services.CreateNewsInput{Title: "Recital", Body: "texto"})
		assert.True(t, errs.Is(err, errs.KindConflict))
	})
}

func TestNewsService_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	summary := "Resumen original"
	created, err := env.service.Create(ctx, services.CreateNewsInput{
		Title:    "Jornada de puertas abiertas",
		Body:     "Cuerpo original",
		Summary:  &summary,
		Author:   "Dirección",
		Category: "eventos",
	})
	require.NoError(t, err)
	id := created.News.ID

	t.Run("omitted fields keep their values", func(t *testing.T) {
		body := "Cuerpo nuevo"
		detail, err := env.service.Update(ctx, id, services.UpdateNewsInput{Body: &body})
		require.NoError(t, err)
		assert.Equal(t, "jornada-de-puertas-abiertas", detail.News.Slug)
		assert.Equal(t, "Cuerpo nuevo", detail.News.Body)
		assert.Equal(t, "Jornada de puertas abiertas", detail.News.Title)
		require.NotNil(t, detail.News.Summary)
		assert.Equal(t, "Resumen original", *detail.News.Summary)
		assert.Equal(t, "Dirección", detail.News.Author)
		assert.True(t, detail.News.Visible)
	})

	t.Run("same title keeps the slug", func(t *testing.T) {
		title := "Jornada de puertas abiertas"
		detail, err := env.service.Update(ctx, id, services.UpdateNewsInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "jornada-de-puertas-abiertas", detail.News.Slug)
	})

	t.Run("new title reallocates the slug", func(t *testing.T) {
		env.createNews(t, "Jornada de verano")

		title := "Jornada de Verano"
		detail, err := env.service.Update(ctx, id, services.UpdateNewsInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "jornada-de-verano-1", detail.News.Slug)
	})

	t.Run("blank title is rejected", func(t *testing.T) {
		title := "  "
		_, err := env.service.Update(ctx, id, services.UpdateNewsInput{Title: &title})
		assert.True(t, errs.Is(err, errs.KindValidation))
	})

	t.Run("unknown article", func(t *testing.T) {
		body := "x"
		_, err := env.service.Update(ctx, uuid.New(), services.UpdateNewsInput{Body: &body})
		assert.True(t, errs.Is(err, errs.KindNotFound))
	})
}

func TestNewsService_UpdatePrincipalInstructions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.service.Create(ctx, services.CreateNewsInput{
		Title: "Temporada de ópera",
		Body:  "texto",
		Media: []services.MediaUpload{
			{Role: services.MediaRolePrincipal, FileName: "old.png", Data: pngBytes("old")},
			{Role: services.MediaRoleGallery, FileName: "g.png", Data: pngBytes("g")},
		},
	})
	require.NoError(t, err)
	id := created.News.ID
	oldPrincipal := created.Media[0]
	gallery := created.Media[1]

	t.Run("conflicting instructions", func(t *testing.T) {
		upload := services.MediaUpload{Role: services.MediaRolePrincipal, FileName: "n.png", Data: pngBytes("n")}
		cases := []services.UpdateNewsInput{
			{ClearPrincipal: true, PrincipalMediaID: &gallery.ID},
			{ClearPrincipal: true, Media: []services.MediaUpload{upload}},
			{PrincipalMediaID: &gallery.ID, Media: []services.MediaUpload{upload}},
		}
		for _, input := range cases {
			_, err := env.service.Update(ctx, id, input)
			assert.True(t, errs.Is(err, errs.KindValidation))
		}
	})

	t.Run("select an existing asset", func(t *testing.T) {
		detail, err := env.service.Update(ctx, id, services.UpdateNewsInput{PrincipalMediaID: &gallery.ID})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{gallery.ID}, principalIDs(detail.Media))
	})

	t.Run("principal upload replaces the current principal", func(t *testing.T) {
		detail, err := env.service.Update(ctx, id, services.UpdateNewsInput{
			Media: []services.MediaUpload{
				{Role: services.MediaRoleGallery, FileName: "extra.png", Data: pngBytes("extra")},
				{Role: services.MediaRolePrincipal, FileName: "new.png", AltText: "nueva", Data: pngBytes("new")},
			},
		})
		require.NoError(t, err)
		require.Len(t, detail.Media, 3)

		principals := principalIDs(detail.Media)
		require.Len(t, principals, 1)
		assert.NotContains(t, mediaIDs(detail.Media), gallery.ID, "the replaced principal row is gone")
		assert.Contains(t, env.blobs.deleted, gallery.URL)
		assert.Contains(t, mediaIDs(detail.Media), oldPrincipal.ID)
	})

	t.Run("clear principal", func(t *testing.T) {
		detail, err := env.service.Update(ctx, id, services.UpdateNewsInput{ClearPrincipal: true})
		require.NoError(t, err)
		assert.Empty(t, principalIDs(detail.Media))
	})

	t.Run("reorder through update", func(t *testing.T) {
		current, err := env.service.ListMedia(ctx, id, true)
		require.NoError(t, err)
		ids := mediaIDs(current)
		reversed := []uuid.UUID{ids[2], ids[1], ids[0]}

		detail, err := env.service.Update(ctx, id, services.UpdateNewsInput{MediaOrder: reversed})
		require.NoError(t, err)
		assert.Equal(t, reversed, mediaIDs(detail.Media))
	})
}

func TestNewsService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.service.Create(ctx, services.CreateNewsInput{
		Title: "Concierto de invierno",
		Body:  "texto",
		Media: []services.MediaUpload{
			{Role: services.MediaRolePrincipal, FileName: "a.png", Data: pngBytes("a")},
			{Role: services.MediaRoleGallery, FileName: "b.png", Data: pngBytes("b")},
		},
	})
	require.NoError(t, err)
	id := created.News.ID
	env.blobs.failDelete[created.Media[1].URL] = true

	require.NoError(t, env.service.Delete(ctx, id), "blob cleanup failures do not block the delete")

	_, err = env.service.GetByID(ctx, id)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	remaining, err := env.mediaRepo.ListByNews(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.ElementsMatch(t, []string{created.Media[0].URL, created.Media[1].URL}, env.blobs.deleted)

	assert.Equal(t, []services.NewsEventType{services.NewsEventCreated, services.NewsEventDeleted}, env.events.types())

	assert.True(t, errs.Is(env.service.Delete(ctx, id), errs.KindNotFound))
}

func TestNewsService_RemoveMediaAndReorder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.service.Create(ctx, services.CreateNewsInput{
		Title: "Masterclass",
		Body:  "texto",
		Media: []services.MediaUpload{
			{Role: services.MediaRoleGallery, FileName: "a.png", Data: pngBytes("a")},
			{Role: services.MediaRoleGallery, FileName: "b.png", Data: pngBytes("b")},
			{Role: services.MediaRoleGallery, FileName: "c.png", Data: pngBytes("c")},
		},
	})
	require.NoError(t, err)
	id := created.News.ID
	ids := mediaIDs(created.Media)

	require.NoError(t, env.service.RemoveMedia(ctx, ids[1]))
	assert.True(t, errs.Is(env.service.RemoveMedia(ctx, ids[1]), errs.KindNotFound))

	items, err := env.service.ReorderMedia(ctx, id, []uuid.UUID{ids[2], ids[0]})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2], ids[0]}, mediaIDs(items))

	_, err = env.service.ReorderMedia(ctx, uuid.New(), nil)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	require.NoError(t, env.service.SetPrincipal(ctx, id, ids[0]))
	require.NoError(t, env.service.ClearPrincipal(ctx, id))
	items, err = env.service.ListMedia(ctx, id, true)
	require.NoError(t, err)
	assert.Empty(t, principalIDs(items))
}

func TestNewsService_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, title := range []string{"Uno", "Dos", "Tres"} {
		env.createNews(t, title)
		env.clock.Advance(24 * time.Hour)
	}

	page, err := env.service.List(ctx, services.NewsListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "uno", page.Items[0].Slug)

	page, err = env.service.List(ctx, services.NewsListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.Limit)
	assert.Equal(t, "tres", page.Items[0].Slug)
}

// failingMediaRepo stops accepting new media rows after allow inserts.
type failingMediaRepo struct {
	repositories.NewsMediaRepository
	allow int
}

func (r *failingMediaRepo) Create(ctx context.Context, media *models.NewsMedia) error {
	if r.allow <= 0 {
		return errors.New("disk full")
	}
	r.allow--
	return r.NewsMediaRepository.Create(ctx, media)
}

func (env *testEnv) serviceWithMediaRepo(repo repositories.NewsMediaRepository) services.NewsService {
	return NewNewsService(NewsServiceDeps{
		NewsRepo:      env.newsRepo,
		MediaRepo:     repo,
		Slugs:         NewSlugAllocator(env.newsRepo),
		Media:         NewMediaOrderingService(repo, env.blobs, nil, env.clock),
		Views:         env.views,
		Blobs:         env.blobs,
		Events:        env.events,
		Clock:         env.clock,
		MaxMediaBytes: 1 << 20,
	})
}

func TestNewsService_AttachFailureReleasesUnattachedBlobs(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		env := newTestEnv(t)
		service := env.serviceWithMediaRepo(&failingMediaRepo{NewsMediaRepository: env.mediaRepo, allow: 1})

		_, err := service.Create(ctx, services.CreateNewsInput{
			Title: "Festival de coros",
			Body:  "Programa",
			Media: []services.MediaUpload{
				{Role: services.MediaRolePrincipal, FileName: "p.png", Data: pngBytes("p")},
				{Role: services.MediaRoleGallery, FileName: "g1.png", Data: pngBytes("g1")},
				{Role: services.MediaRoleGallery, FileName: "g2.png", Data: pngBytes("g2")},
			},
		})
		assert.True(t, errs.Is(err, errs.KindInternal))

		assert.Len(t, env.blobs.deleted, 2)
		assert.Equal(t, 1, env.blobs.count(), "only the attached blob remains")

		news, err := env.newsRepo.FindBySlug(ctx, "festival-de-coros")
		require.NoError(t, err)
		items, err := env.mediaRepo.ListByNews(ctx, news.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		_, kept := env.blobs.blobs[items[0].URL]
		assert.True(t, kept)
	})

	t.Run("update", func(t *testing.T) {
		env := newTestEnv(t)
		news := env.createNews(t, "Clínica de batería")
		service := env.serviceWithMediaRepo(&failingMediaRepo{NewsMediaRepository: env.mediaRepo})

		_, err := service.Update(ctx, news.ID, services.UpdateNewsInput{
			Media: []services.MediaUpload{
				{Role: services.MediaRoleGallery, FileName: "g1.png", Data: pngBytes("g1")},
				{Role: services.MediaRoleGallery, FileName: "g2.png", Data: pngBytes("g2")},
			},
		})
		assert.True(t, errs.Is(err, errs.KindInternal))
		assert.Len(t, env.blobs.deleted, 2)
		assert.Zero(t, env.blobs.count())
	})
}
