// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import "context"

const (
	// TypeLabel is for labeling metrics; if there is a single metric for
	// successful queries, the typeLabel and corresponding type can be used
	// when incrementing the metric.
	TypeLabel  = "type"
	ReadType   = "read"
	WriteType  = "write"
	PushType   = "push"
	DeleteType = "delete"
)

// Central document paths used by corral. The admin credential and login
// attempt paths exist in the hub database but are not managed here.
const (
	ConfigsPath  = "firebaseConfigs"
	SnapshotPath = "forwardingBackup"
)

// S is a hierarchical document store keyed by forward-slash-delimited paths.
// Read unmarshals the value at path into the given target and returns
// ErrPathNotFound when the path holds no value. Write replaces the value at
// path wholesale. Push appends a child under path with a generated key and
// returns that key.
type S interface {
	Read(ctx context.Context, path string, into interface{}) error
	Write(ctx context.Context, path string, value interface{}) error
	Push(ctx context.Context, path string, value interface{}) (string, error)
	Delete(ctx context.Context, path string) error
}
