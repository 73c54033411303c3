// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package forwarding

import "strings"

// illegal path runes for document-store keys
const illegalKeyRunes = ".#$[]/"

// SanitizeKey makes a registry key safe to use as a child key of the
// snapshot document by replacing illegal path runes with underscores.
func SanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalKeyRunes, r) {
			return '_'
		}
		return r
	}, key)
}
