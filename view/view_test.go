// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corral-io/corral/model"
)

func sampleRecords(n int) []model.Record {
	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.Record{
			ID:              fmt.Sprintf("r%02d", i),
			SourceProjectID: "herd-a",
			Fields:          map[string]interface{}{"index": i},
		})
	}
	return records
}

func TestFilter(t *testing.T) {
	records := []model.Record{
		{
			ID:              "r1",
			SourceProjectID: "herd-a",
			Fields:          map[string]interface{}{"name": "Daisy", "count": 7},
		},
		{
			ID:              "r2",
			SourceProjectID: "herd-b",
			SourceURL:       "https://herd-b.firebaseio.com",
			Fields:          map[string]interface{}{"name": "Bessie"},
		},
	}

	testCases := []struct {
		Name        string
		Term        string
		ExpectedIDs []string
	}{
		{
			Name:        "empty term matches everything",
			Term:        "",
			ExpectedIDs: []string{"r1", "r2"},
		},
		{
			Name:        "case-insensitive field match",
			Term:        "dAiSy",
			ExpectedIDs: []string{"r1"},
		},
		{
			Name:        "numeric field matched as string",
			Term:        "7",
			ExpectedIDs: []string{"r1"},
		},
		{
			Name:        "provenance match",
			Term:        "herd-b",
			ExpectedIDs: []string{"r2"},
		},
		{
			Name:        "id match",
			Term:        "r1",
			ExpectedIDs: []string{"r1"},
		},
		{
			Name:        "no match",
			Term:        "zebra",
			ExpectedIDs: nil,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			filtered := Filter(records, testCase.Term)
			var ids []string
			for _, record := range filtered {
				ids = append(ids, record.ID)
			}
			assert.Equal(t, testCase.ExpectedIDs, ids)
		})
	}
}

func TestPaginate(t *testing.T) {
	testCases := []struct {
		Name            string
		Total           int
		Page            int
		ExpectedPage    int
		ExpectedLen     int
		ExpectedTotalPg int
	}{
		{
			Name:            "first page full",
			Total:           45,
			Page:            1,
			ExpectedPage:    1,
			ExpectedLen:     20,
			ExpectedTotalPg: 3,
		},
		{
			Name:            "last page partial",
			Total:           45,
			Page:            3,
			ExpectedPage:    3,
			ExpectedLen:     5,
			ExpectedTotalPg: 3,
		},
		{
			Name:            "page beyond range clamps to last",
			Total:           45,
			Page:            9,
			ExpectedPage:    3,
			ExpectedLen:     5,
			ExpectedTotalPg: 3,
		},
		{
			Name:            "page below range clamps to first",
			Total:           45,
			Page:            0,
			ExpectedPage:    1,
			ExpectedLen:     20,
			ExpectedTotalPg: 3,
		},
		{
			Name:            "empty set still has one page",
			Total:           0,
			Page:            1,
			ExpectedPage:    1,
			ExpectedLen:     0,
			ExpectedTotalPg: 1,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			page := Paginate(sampleRecords(testCase.Total), testCase.Page, DefaultPageSize)
			assert.Equal(testCase.ExpectedPage, page.Number)
			assert.Len(page.Records, testCase.ExpectedLen)
			assert.Equal(testCase.ExpectedTotalPg, page.TotalPages)
			assert.Equal(testCase.Total, page.Filtered)
		})
	}
}

func TestSerialNumber(t *testing.T) {
	assert := assert.New(t)

	// 45 filtered records: page one runs 45 down to 26, page three 5 down to 1
	assert.Equal(45, SerialNumber(45, 1, DefaultPageSize, 0))
	assert.Equal(26, SerialNumber(45, 1, DefaultPageSize, 19))
	assert.Equal(5, SerialNumber(45, 3, DefaultPageSize, 0))
	assert.Equal(1, SerialNumber(45, 3, DefaultPageSize, 4))
}

func TestSerialNumberStableAcrossPages(t *testing.T) {
	require := require.New(t)

	// every serial in 1..45 appears exactly once across the paginated set
	seen := map[int]bool{}
	records := sampleRecords(45)
	for pageNum := 1; pageNum <= 3; pageNum++ {
		page := Paginate(records, pageNum, DefaultPageSize)
		for i := range page.Records {
			serial := SerialNumber(page.Filtered, page.Number, page.Size, i)
			require.False(seen[serial], "serial %d assigned twice", serial)
			seen[serial] = true
		}
	}
	require.Len(seen, 45)
	for serial := 1; serial <= 45; serial++ {
		require.True(seen[serial])
	}
}
