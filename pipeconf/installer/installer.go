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

package installer

import (
	"context"
	"fmt"

	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/opencord/vxlan-pipeconf/pipeconf/flow"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
	"github.com/opencord/vxlan-pipeconf/pipeconf/translator"
	"github.com/opencord/vxlan-pipeconf/pipeconf/utils"
)

// UpdateType is the kind of change written to a device
type UpdateType int

const (
	Insert UpdateType = iota
	Modify
	Delete
)

func (t UpdateType) String() string {
	switch t {
	case Insert:
		return "INSERT"
	case Modify:
		return "MODIFY"
	case Delete:
		return "DELETE"
	}
	return fmt.Sprintf("UpdateType(%d)", int(t))
}

// Update is one table entry change
type Update struct {
	Type  UpdateType
	Entry *pi.TableEntry
}

// DeviceWriter programs table entries on a device
//
//go:generate mockgen -destination=../mocks/mock_device_writer.go -package=mocks github.com/opencord/vxlan-pipeconf/pipeconf/installer DeviceWriter
type DeviceWriter interface {
	Write(ctx context.Context, deviceID string, updates ...Update) error
}

// Result tells what installing a rule did. Written is false when the device already had the same entry.
type Result struct {
	RuleID  uint64
	Type    UpdateType
	Written bool
}

// Installer translates rules and writes them to their devices
type Installer struct {
	translator *translator.Translator
	writer     DeviceWriter
	cache      *Cache
	queues     *utils.RequestQueues
}

// NewInstaller creates an installer writing through w
func NewInstaller(t *translator.Translator, w DeviceWriter) *Installer {
	return &Installer{
		translator: t,
		writer:     w,
		cache:      NewCache(),
		queues:     utils.NewRequestQueues(),
	}
}

// Install translates every rule, then writes the entries in order. Nothing is written
// if a rule fails to translate; writing stops at the first device error.
func (i *Installer) Install(ctx context.Context, rules ...*flow.Rule) ([]Result, error) {
	entries, err := i.translator.TranslateAll(ctx, rules)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		res, err := i.install(ctx, entry)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (i *Installer) install(ctx context.Context, entry *pi.TableEntry) (Result, error) {
	res := Result{RuleID: entry.RuleID}
	err := i.queues.Get(entry.DeviceID).Do(ctx, func(ctx context.Context) error {
		h, created := i.cache.LockOrCreate(entry)
		if created {
			res.Type = Insert
			if err := i.writer.Write(ctx, entry.DeviceID, Update{Type: Insert, Entry: entry}); err != nil {
				h.Delete()
				return err
			}
			h.Unlock()
			res.Written = true
			return nil
		}
		defer h.Unlock()

		res.Type = Modify
		if h.GetReadOnly().Equal(entry) {
			logger.Debugw(ctx, "entry-unchanged", log.Fields{"device-id": entry.DeviceID, "rule-id": entry.RuleID})
			return nil
		}
		if err := i.writer.Write(ctx, entry.DeviceID, Update{Type: Modify, Entry: entry}); err != nil {
			return err
		}
		h.Update(entry)
		res.Written = true
		return nil
	})
	if err != nil {
		logger.Errorw(ctx, "entry-write-failed", log.Fields{"device-id": entry.DeviceID, "rule-id": entry.RuleID, "error": err})
		return res, fmt.Errorf("installing rule %d on %s: %w", entry.RuleID, entry.DeviceID, err)
	}
	logger.Debugw(ctx, "entry-installed", log.Fields{"device-id": entry.DeviceID, "rule-id": entry.RuleID, "type": res.Type.String(), "written": res.Written})
	return res, nil
}

// Remove deletes the entries of the given rules from their devices and from the cache
func (i *Installer) Remove(ctx context.Context, ruleIDs ...uint64) error {
	for _, id := range ruleIDs {
		entry, have := i.cache.Get(id)
		if !have {
			return fmt.Errorf("rule %d: %w", id, pi.ErrUnknownEntity)
		}
		err := i.queues.Get(entry.DeviceID).Do(ctx, func(ctx context.Context) error {
			h, have := i.cache.Lock(id)
			if !have {
				// removed while we were queued
				return nil
			}
			if err := i.writer.Write(ctx, entry.DeviceID, Update{Type: Delete, Entry: h.GetReadOnly()}); err != nil {
				h.Unlock()
				return err
			}
			h.Delete()
			return nil
		})
		if err != nil {
			logger.Errorw(ctx, "entry-delete-failed", log.Fields{"device-id": entry.DeviceID, "rule-id": id, "error": err})
			return fmt.Errorf("removing rule %d from %s: %w", id, entry.DeviceID, err)
		}
		logger.Debugw(ctx, "entry-removed", log.Fields{"device-id": entry.DeviceID, "rule-id": id})
	}
	return nil
}

// Entries returns the installed entries ordered by rule id
func (i *Installer) Entries() []*pi.TableEntry {
	return i.cache.List()
}
