// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package inmem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/corral-io/corral/docstore"
)

// InMem is a mutex-guarded in-memory document tree. It is the default hub
// store and the one used by tests.
type InMem struct {
	root map[string]interface{}
	lock sync.Mutex
	seq  int
}

func NewInMem() *InMem {
	return &InMem{
		root: map[string]interface{}{},
	}
}

func segments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// normalize round-trips the value through JSON so the tree only ever holds
// maps, slices and scalars, matching what a remote document store returns.
func normalize(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InMem) resolve(path string) (interface{}, bool) {
	var node interface{} = s.root
	for _, seg := range segments(path) {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

func (s *InMem) Read(ctx context.Context, path string, into interface{}) error {
	s.lock.Lock()
	node, ok := s.resolve(path)
	s.lock.Unlock()
	if !ok || node == nil {
		return docstore.PathOperationError{Err: docstore.ErrPathNotFound, Path: path, Operation: docstore.ReadType}
	}
	data, err := json.Marshal(node)
	if err != nil {
		return docstore.PathOperationError{Err: err, Path: path, Operation: docstore.ReadType}
	}
	if err := json.Unmarshal(data, into); err != nil {
		return docstore.PathOperationError{Err: err, Path: path, Operation: docstore.ReadType}
	}
	return nil
}

func (s *InMem) Write(ctx context.Context, path string, value interface{}) error {
	if value == nil {
		return s.Delete(ctx, path)
	}
	node, err := normalize(value)
	if err != nil {
		return docstore.PathOperationError{Err: err, Path: path, Operation: docstore.WriteType}
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	segs := segments(path)
	if len(segs) == 0 {
		m, ok := node.(map[string]interface{})
		if !ok {
			return docstore.PathOperationError{Err: fmt.Errorf("root value must be an object"), Path: path, Operation: docstore.WriteType}
		}
		s.root = m
		return nil
	}
	parent := s.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := parent[seg].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			parent[seg] = child
		}
		parent = child
	}
	parent[segs[len(segs)-1]] = node
	return nil
}

func (s *InMem) Push(ctx context.Context, path string, value interface{}) (string, error) {
	s.lock.Lock()
	s.seq++
	key := fmt.Sprintf("-push%06d", s.seq)
	s.lock.Unlock()

	childPath := strings.Trim(path, "/")
	if childPath == "" {
		childPath = key
	} else {
		childPath = childPath + "/" + key
	}
	if err := s.Write(ctx, childPath, value); err != nil {
		return "", docstore.PathOperationError{Err: err, Path: path, Operation: docstore.PushType}
	}
	return key, nil
}

func (s *InMem) Delete(ctx context.Context, path string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	segs := segments(path)
	if len(segs) == 0 {
		s.root = map[string]interface{}{}
		return nil
	}
	parent := s.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := parent[seg].(map[string]interface{})
		if !ok {
			return nil
		}
		parent = child
	}
	delete(parent, segs[len(segs)-1])
	return nil
}
