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

package p4rt

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/opencord/vxlan-pipeconf/pipeconf/installer"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
	p4 "github.com/p4lang/p4runtime/go/p4/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// WriteClient is the part of p4.P4RuntimeClient used to program table entries
type WriteClient interface {
	Write(ctx context.Context, in *p4.WriteRequest, opts ...grpc.CallOption) (*p4.WriteResponse, error)
}

// Writer is an installer.DeviceWriter sending P4Runtime write requests.
// The connection and the mastership election belong to the caller.
type Writer struct {
	client   WriteClient
	resolver *Resolver
	devices  map[string]uint64
	election *p4.Uint128

	retries      uint64
	retryBackoff time.Duration
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithRetry resends a request the device reported Unavailable, up to retries more times,
// waiting exponentially longer from initial between attempts
func WithRetry(retries uint64, initial time.Duration) WriterOption {
	return func(w *Writer) {
		w.retries = retries
		w.retryBackoff = initial
	}
}

// NewWriter creates a writer for the given devices, mapping each device name to its P4Runtime device id
func NewWriter(client WriteClient, resolver *Resolver, devices map[string]uint64, election *p4.Uint128, opts ...WriterOption) *Writer {
	ids := make(map[string]uint64, len(devices))
	for name, id := range devices {
		ids[name] = id
	}
	w := &Writer{client: client, resolver: resolver, devices: ids, election: election}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ installer.DeviceWriter = (*Writer)(nil)

var updateTypes = map[installer.UpdateType]p4.Update_Type{
	installer.Insert: p4.Update_INSERT,
	installer.Modify: p4.Update_MODIFY,
	installer.Delete: p4.Update_DELETE,
}

// Write sends all the updates in a single write request
func (w *Writer) Write(ctx context.Context, deviceID string, updates ...installer.Update) error {
	id, have := w.devices[deviceID]
	if !have {
		return fmt.Errorf("device %q: %w", deviceID, ErrUnknownEntity)
	}
	req := &p4.WriteRequest{DeviceId: id, ElectionId: w.election, Atomicity: p4.WriteRequest_CONTINUE_ON_ERROR}
	for _, u := range updates {
		t, have := updateTypes[u.Type]
		if !have {
			return fmt.Errorf("update type %s: %w", u.Type, pi.ErrMalformedValue)
		}
		update, err := w.resolver.Update(t, u.Entry)
		if err != nil {
			return err
		}
		req.Updates = append(req.Updates, update)
	}
	if err := w.send(ctx, deviceID, req); err != nil {
		logger.Warnw(ctx, "p4runtime-write-failed", log.Fields{"device-id": deviceID, "updates": len(req.Updates), "error": err})
		return err
	}
	logger.Debugw(ctx, "p4runtime-write-sent", log.Fields{"device-id": deviceID, "updates": len(req.Updates)})
	return nil
}

func (w *Writer) send(ctx context.Context, deviceID string, req *p4.WriteRequest) error {
	if w.retries == 0 {
		_, err := w.client.Write(ctx, req)
		return err
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = w.retryBackoff
	exp.MaxElapsedTime = 0
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		_, err := w.client.Write(ctx, req)
		if err == nil {
			return nil
		}
		if status.Code(err) != codes.Unavailable {
			return backoff.Permanent(err)
		}
		logger.Debugw(ctx, "p4runtime-write-retry", log.Fields{"device-id": deviceID, "attempt": attempt, "error": err})
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(exp, w.retries), ctx))
}
