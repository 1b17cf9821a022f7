package serviceimpl

import (
	"sync"

	"github.com/google/uuid"
)

// ArticleLocker serializes mutations of one article inside this process.
// Running several instances needs an external lock behind the same Lock signature.
type ArticleLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*articleLock
}

type articleLock struct {
	mu   sync.Mutex
	refs int
}

func NewArticleLocker() *ArticleLocker {
	return &ArticleLocker{locks: make(map[uuid.UUID]*articleLock)}
}

// Lock blocks until the article is free and returns the unlock func.
func (l *ArticleLocker) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &articleLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *ArticleLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
