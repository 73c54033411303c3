// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package firebasedb

import "encoding/json"

// remarshal converts a decoded JSON tree into the caller's target type.
func remarshal(raw, into interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, into)
}
