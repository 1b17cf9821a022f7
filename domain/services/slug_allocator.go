package services

import (
	"context"

	"github.com/google/uuid"
)

// SlugAllocator turns a title into a slug no other article uses.
type SlugAllocator interface {
	Allocate(ctx context.Context, title string, excludeID *uuid.UUID) (string, error)
}
