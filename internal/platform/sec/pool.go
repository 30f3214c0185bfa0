// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of CPU-heavy operations running at once.
type Pool struct {
	slots *semaphore.Weighted
	size  int64
}

// NewPool creates a pool with size slots. A non-positive size uses GOMAXPROCS.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		slots: semaphore.NewWeighted(int64(size)),
		size:  int64(size),
	}
}

// Do waits for a free slot and runs fn in it. If context is cancelled while
// waiting, fn never runs and the context error is returned.
func (pool *Pool) Do(context context.Context, fn func() error) error {
	if err := pool.slots.Acquire(context, 1); err != nil {
		return err
	}
	defer pool.slots.Release(1)

	return fn()
}

// Size returns the number of slots.
func (pool *Pool) Size() int {
	return int(pool.size)
}
