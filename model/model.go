// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package model

// RemoteConfig is one registered remote database. Entries live in the central
// registry either as structured maps or as JSON strings; both forms normalize
// to this type. A config is usable only when DatabaseURL is set.
type RemoteConfig struct {
	// ID is the registry key under which this config is stored.
	ID string `json:"-"`

	DatabaseURL       string `json:"databaseURL" validate:"required,url"`
	ProjectID         string `json:"projectId"`
	APIKey            string `json:"apiKey"`
	AppID             string `json:"appId"`
	AuthDomain        string `json:"authDomain,omitempty"`
	StorageBucket     string `json:"storageBucket,omitempty"`
	MessagingSenderID string `json:"messagingSenderId,omitempty"`

	// Credentials optionally holds a service account JSON blob for remotes
	// that require authenticated access.
	Credentials string `json:"credentials,omitempty"`
}

// Source returns the provenance label for records fetched through this
// config: the project id when present, otherwise the registry key.
func (c RemoteConfig) Source() string {
	if c.ProjectID != "" {
		return c.ProjectID
	}
	return c.ID
}

// Record is a single entry read from one remote database. ID is unique only
// within its source; (SourceProjectID, ID) identifies a record across the
// combined view.
type Record struct {
	ID              string                 `json:"id"`
	Fields          map[string]interface{} `json:"fields"`
	SourceProjectID string                 `json:"sourceProjectId"`
	SourceURL       string                 `json:"sourceUrl"`

	// Timestamp is the recency key in milliseconds. Records without a
	// parseable timestamp carry zero and sort oldest.
	Timestamp int64 `json:"timestamp"`
}

// SnapshotEntry captures one remote's forward value at backup time.
type SnapshotEntry struct {
	Forward     string `json:"forward"`
	ProjectID   string `json:"projectId"`
	DatabaseURL string `json:"databaseURL"`
	CapturedAt  int64  `json:"capturedAt"`
}

// ForwardingSnapshot is the single point-in-time backup document. Each backup
// overwrites the previous snapshot in full.
type ForwardingSnapshot struct {
	Entries map[string]SnapshotEntry `json:"entries"`
	Taken   int64                    `json:"taken"`
	Count   int                      `json:"count"`
}

// TargetResult reports the outcome of one remote target within an aggregate
// operation. Err is empty on success.
type TargetResult struct {
	Key         string `json:"key"`
	ProjectID   string `json:"projectId,omitempty"`
	DatabaseURL string `json:"databaseURL,omitempty"`
	Err         string `json:"error,omitempty"`
}

// OK returns true if the target settled without an error.
func (r TargetResult) OK() bool {
	return r.Err == ""
}
