/*
 * Copyright 2018-2023 Open Networking Foundation (ONF) and the ONF Contributors

 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at

 * http://www.apache.org/licenses/LICENSE-2.0

 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package utils holds the write serialization primitives shared by the installer.
package utils

import (
	"context"
	"sync"
)

type ticket struct {
	prev, next *ticket
	// closed when the holder of this ticket gives up its turn
	release chan<- struct{}
}

// RequestQueue lets requests run one at a time, in arrival order. A waiting request
// can leave the queue by cancelling its context.
type RequestQueue struct {
	mutex sync.Mutex

	tail, active *ticket
	tailDone     <-chan struct{}
}

// NewRequestQueue creates an idle request queue
func NewRequestQueue() *RequestQueue {
	ch := make(chan struct{})
	close(ch) // nobody is active yet
	return &RequestQueue{tailDone: ch}
}

// WaitForGreenLight blocks until every request queued before this one is complete, or ctx is done.
// On success the caller is the active request and must call RequestComplete.
func (rq *RequestQueue) WaitForGreenLight(ctx context.Context) error {
	rq.mutex.Lock()
	turn := rq.tailDone
	ch := make(chan struct{})
	rq.tailDone = ch
	t := &ticket{release: ch}
	if rq.tail != nil {
		rq.tail.next, t.prev = t, rq.tail
	}
	rq.tail = t
	rq.mutex.Unlock()

	select {
	case <-turn:
		rq.mutex.Lock()
		rq.active = t
		rq.mutex.Unlock()
		return nil

	case <-ctx.Done():
		rq.mutex.Lock()
		defer rq.mutex.Unlock()
		select {
		case <-turn:
			// our turn came along with the cancellation: pass it on at once
			rq.active = t
			rq.releaseWithoutLock()
		default:
			// hand our release channel to the predecessor and unlink
			t.prev.release = t.release
			t.prev.next = t.next
			if t.next != nil {
				t.next.prev = t.prev
			} else {
				rq.tail = t.prev
			}
		}
		return ctx.Err()
	}
}

// RequestComplete gives the turn to the next request. It must follow a successful WaitForGreenLight.
func (rq *RequestQueue) RequestComplete() {
	rq.mutex.Lock()
	defer rq.mutex.Unlock()
	rq.releaseWithoutLock()
}

func (rq *RequestQueue) releaseWithoutLock() {
	// panics if the turn is released twice
	close(rq.active.release)
	if rq.active.next != nil {
		rq.active.next.prev = nil
	}
}

// Do runs fn as the active request
func (rq *RequestQueue) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := rq.WaitForGreenLight(ctx); err != nil {
		return err
	}
	defer rq.RequestComplete()
	return fn(ctx)
}

// RequestQueues keeps one RequestQueue per key, created on first use
type RequestQueues struct {
	mutex  sync.Mutex
	queues map[string]*RequestQueue
}

// NewRequestQueues creates an empty set of queues
func NewRequestQueues() *RequestQueues {
	return &RequestQueues{queues: make(map[string]*RequestQueue)}
}

// Get returns the queue of key
func (q *RequestQueues) Get(key string) *RequestQueue {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	rq, have := q.queues[key]
	if !have {
		rq = NewRequestQueue()
		q.queues[key] = rq
	}
	return rq
}
