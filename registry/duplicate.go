// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import "github.com/corral-io/corral/model"

// IsDuplicate reports whether the candidate collides with any existing config.
// A single exact match on databaseURL, projectId or appId is enough; empty
// fields never match.
func IsDuplicate(candidate model.RemoteConfig, existing []model.RemoteConfig) bool {
	for _, e := range existing {
		if candidate.DatabaseURL != "" && candidate.DatabaseURL == e.DatabaseURL {
			return true
		}
		if candidate.ProjectID != "" && candidate.ProjectID == e.ProjectID {
			return true
		}
		if candidate.AppID != "" && candidate.AppID == e.AppID {
			return true
		}
	}
	return false
}
