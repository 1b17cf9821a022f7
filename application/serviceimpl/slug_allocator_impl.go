package serviceimpl

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"musicschool-news/domain/errs"
	"musicschool-news/domain/repositories"
	"musicschool-news/domain/services"
)

const (
	MaxSlugLength = 100

	// maxSlugSuffix bounds the suffix loop; reaching it means something is wrong with the table.
	maxSlugSuffix = 10000
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-{2,}`)
)

type SlugAllocatorImpl struct {
	newsRepo repositories.NewsRepository
}

func NewSlugAllocator(newsRepo repositories.NewsRepository) *SlugAllocatorImpl {
	return &SlugAllocatorImpl{newsRepo: newsRepo}
}

var _ services.SlugAllocator = (*SlugAllocatorImpl)(nil)

// NormalizeSlug turns a title into the base slug candidate, or "" when nothing usable is left.
func NormalizeSlug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, title)
	if err != nil {
		s = title
	}

	s = strings.ToLower(s)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return truncateSlug(s, MaxSlugLength)
}

func truncateSlug(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.TrimRight(s, "-")
}

// Allocate tries base, base-1, base-2, ... in order and returns the first slug not in use.
// excludeID lets an article keep its own slug when its title changes to the same base.
func (a *SlugAllocatorImpl) Allocate(ctx context.Context, title string, excludeID *uuid.UUID) (string, error) {
	base := NormalizeSlug(title)
	if base == "" {
		return "", errs.Validation("title does not contain any characters usable in a slug")
	}

	for n := 0; n <= maxSlugSuffix; n++ {
		candidate := base
		if n > 0 {
			suffix := fmt.Sprintf("-%d", n)
			candidate = truncateSlug(base, MaxSlugLength-len(suffix)) + suffix
		}

		exists, err := a.newsRepo.ExistsSlug(ctx, candidate, excludeID)
		if err != nil {
			return "", errs.Internal("failed to check slug availability", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", errs.Conflict(fmt.Sprintf("no free slug found for %q", base), nil)
}
