// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package inmemkv

import (
	"context"
	"strings"
	"sync"

	"github.com/corral-io/corral/localstate"
)

// InMem is the default localstate.KV implementation.
type InMem struct {
	lock    sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
}

func New() *InMem {
	return &InMem{
		strings: map[string]string{},
		sets:    map[string]map[string]struct{}{},
	}
}

func (s *InMem) GetString(ctx context.Context, key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	value, ok := s.strings[key]
	if !ok {
		return "", localstate.ErrKeyNotFound
	}
	return value, nil
}

func (s *InMem) SetString(ctx context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.strings[key] = value
	return nil
}

func (s *InMem) AddToSet(ctx context.Context, key, member string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = map[string]struct{}{}
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (s *InMem) InSet(ctx context.Context, key, member string) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.sets[key][member]
	return ok, nil
}

func (s *InMem) Clear(ctx context.Context, prefix string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for key := range s.strings {
		if strings.HasPrefix(key, prefix) {
			delete(s.strings, key)
		}
	}
	for key := range s.sets {
		if strings.HasPrefix(key, prefix) {
			delete(s.sets, key)
		}
	}
	return nil
}
