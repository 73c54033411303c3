// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

// Package view holds the pure presentation derivations over a combined
// record set: free-text filtering, pagination and stable serial numbering.
// Everything here recomputes from its inputs; nothing is stateful.
package view

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/corral-io/corral/model"
)

// DefaultPageSize is the fixed dashboard page size.
const DefaultPageSize = 20

// Filter returns the records matching the term: a case-insensitive substring
// match against the string form of every field value, the record id and the
// provenance fields, OR across all of them. An empty term matches everything.
func Filter(records []model.Record, term string) []model.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records
	}
	var filtered []model.Record
	for _, record := range records {
		if matches(record, term) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

func matches(record model.Record, term string) bool {
	if strings.Contains(strings.ToLower(record.ID), term) ||
		strings.Contains(strings.ToLower(record.SourceProjectID), term) ||
		strings.Contains(strings.ToLower(record.SourceURL), term) {
		return true
	}
	for _, value := range record.Fields {
		if strings.Contains(strings.ToLower(cast.ToString(value)), term) {
			return true
		}
	}
	return false
}

// Page is one window of the filtered set.
type Page struct {
	Records    []model.Record
	Number     int
	Size       int
	TotalPages int
	Filtered   int
}

// Paginate clamps the requested page into range and slices out its window.
// Page numbers are 1-based.
func Paginate(filtered []model.Record, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Records:    filtered[start:end],
		Number:     page,
		Size:       pageSize,
		TotalPages: totalPages,
		Filtered:   total,
	}
}

// SerialNumber numbers the filtered set descending: the newest record on page
// one carries the highest serial and numbering is stable under pagination.
func SerialNumber(filteredCount, page, pageSize, rowIndex int) int {
	return filteredCount - ((page-1)*pageSize + rowIndex)
}
