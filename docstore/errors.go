// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPathNotFound means the requested path holds no value.
	ErrPathNotFound = errors.New("path not found")
)

// PathOperationError wraps store failures with the path and operation that
// produced them.
type PathOperationError struct {
	Err       error
	Path      string
	Operation string
}

func (e PathOperationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Operation, e.Path, e.Err)
}

func (e PathOperationError) Unwrap() error {
	return e.Err
}

// StatusCode translates not-found errors for the transport layer.
func (e PathOperationError) StatusCode() int {
	if errors.Is(e.Err, ErrPathNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
