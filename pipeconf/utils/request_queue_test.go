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

package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestQueueOrdering(t *testing.T) {
	rq := NewRequestQueue()
	// take the turn first, so the requests below queue up
	assert.Nil(t, rq.WaitForGreenLight(context.Background()))

	doneOrder := make([]int, 0, 10)
	wg := sync.WaitGroup{}
	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			defer wg.Done()
			if err := rq.WaitForGreenLight(context.Background()); err != nil {
				t.Error(err)
				return
			}
			doneOrder = append(doneOrder, i)
			rq.RequestComplete()
		}(i)
		// make sure request i is queued before request i+1
		time.Sleep(time.Millisecond)
	}
	rq.RequestComplete()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, doneOrder)
}

func TestRequestQueueCancellation(t *testing.T) {
	rq := NewRequestQueue()
	assert.Nil(t, rq.WaitForGreenLight(context.Background()))

	cancelled, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			defer wg.Done()
			// requests 0, 1, 4, 5, 8 and 9 give up
			willCancel := (i/2)%2 == 0
			ctx := context.Background()
			if willCancel {
				ctx = cancelled
			}
			err := rq.WaitForGreenLight(ctx)
			if willCancel {
				assert.True(t, errors.Is(err, context.Canceled))
				return
			}
			assert.Nil(t, err)
			rq.RequestComplete()
		}(i)
	}
	// let every request queue up before cancelling
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(time.Millisecond)
	rq.RequestComplete()
	wg.Wait()

	// the queue is idle again
	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	assert.Nil(t, rq.WaitForGreenLight(ctx))
	rq.RequestComplete()
}

func TestRequestQueueDo(t *testing.T) {
	rq := NewRequestQueue()
	running := 0
	maxRunning := 0
	mutex := sync.Mutex{}

	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := rq.Do(context.Background(), func(ctx context.Context) error {
				mutex.Lock()
				running++
				if running > maxRunning {
					maxRunning = running
				}
				mutex.Unlock()
				time.Sleep(100 * time.Microsecond)
				mutex.Lock()
				running--
				mutex.Unlock()
				return nil
			})
			assert.Nil(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxRunning)

	failure := errors.New("write-failed")
	assert.Equal(t, failure, rq.Do(context.Background(), func(context.Context) error { return failure }))
	// the failing request still released its turn
	assert.Nil(t, rq.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestRequestQueues(t *testing.T) {
	qs := NewRequestQueues()
	a := qs.Get("device:s1")
	assert.True(t, a == qs.Get("device:s1"))
	assert.False(t, a == qs.Get("device:s2"))

	// queues of different keys do not block each other
	assert.Nil(t, a.WaitForGreenLight(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Nil(t, qs.Get("device:s2").Do(ctx, func(context.Context) error { return nil }))
	a.RequestComplete()
}
