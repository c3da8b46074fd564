// Package statuscache memoises the working tree status of a repository
// until something under it changes.
package statuscache

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/thiagokokada/gitk-history/internal/debounce"
	"github.com/thiagokokada/gitk-history/internal/git"
)

type Cache struct {
	compute func() (git.WorkingTree, error)

	mu        sync.Mutex
	valid     bool
	status    git.WorkingTree
	listeners []func()

	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
}

func New(compute func() (git.WorkingTree, error)) *Cache {
	return &Cache{compute: compute}
}

// Status returns the cached status, computing it on first use or after a
// Reset. Errors are not cached.
func (c *Cache) Status() (git.WorkingTree, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid {
		return c.status, nil
	}
	status, err := c.compute()
	if err != nil {
		return git.WorkingTree{}, err
	}
	c.status = status
	c.valid = true
	return status, nil
}

// Reset drops the cached status and notifies listeners.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.valid = false
	c.status = git.WorkingTree{}
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (c *Cache) OnReset(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}
