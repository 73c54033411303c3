// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package records

import "net/http"

// BadRequestErr is returned by the request decoders.
type BadRequestErr struct {
	Message string
}

func (b BadRequestErr) Error() string {
	return b.Message
}

func (b BadRequestErr) StatusCode() int {
	return http.StatusBadRequest
}
