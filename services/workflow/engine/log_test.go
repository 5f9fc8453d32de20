// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
)

func recordN(log *ExecutionLog, n int) {
	for i := 0; i < n; i++ {
		log.Record(datatypes.ExecutionLogEntry{
			Query:  fmt.Sprintf("query-%d", i),
			Status: datatypes.StatusCompleted,
		})
	}
}

func TestExecutionLog_RecentLimits(t *testing.T) {
	log := NewExecutionLog()
	recordN(log, 5)

	t.Run("limit smaller than history", func(t *testing.T) {
		entries := log.Recent(2)
		require.Len(t, entries, 2)
		assert.Equal(t, "query-3", entries[0].Query)
		assert.Equal(t, "query-4", entries[1].Query)
	})

	t.Run("limit larger than history", func(t *testing.T) {
		assert.Len(t, log.Recent(100), 5)
	})

	t.Run("zero limit returns everything", func(t *testing.T) {
		assert.Len(t, log.Recent(0), 5)
	})

	t.Run("negative limit returns everything", func(t *testing.T) {
		assert.Len(t, log.Recent(-3), 5)
	})
}

func TestExecutionLog_RecentIsACopy(t *testing.T) {
	log := NewExecutionLog()
	recordN(log, 2)

	entries := log.Recent(0)
	entries[0].Query = "mutated"

	assert.Equal(t, "query-0", log.Recent(0)[0].Query)
}

func TestExecutionLog_EmptyAndClear(t *testing.T) {
	log := NewExecutionLog()
	assert.Nil(t, log.Recent(10))
	assert.Equal(t, 0, log.Len())

	recordN(log, 3)
	require.Equal(t, 3, log.Len())

	log.Clear()
	assert.Equal(t, 0, log.Len())
	assert.Nil(t, log.Recent(0))
}
