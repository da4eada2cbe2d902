package client

import (
	"sync"
	"time"
)

const (
	timeout = 5 * time.Second
	tick    = 5 * time.Millisecond
)

type countingIndicator struct {
	mu    sync.Mutex
	shows int
	hides int
}

func (c *countingIndicator) Show() {
	c.mu.Lock()
	c.shows++
	c.mu.Unlock()
}

func (c *countingIndicator) Hide() {
	c.mu.Lock()
	c.hides++
	c.mu.Unlock()
}
