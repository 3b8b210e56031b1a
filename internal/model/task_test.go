package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriority_Valid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Priority("").Valid())
	assert.False(t, Priority("urgent").Valid())
}

func TestTask_RecencyTime(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	completed := created.Add(48 * time.Hour)

	open := Task{CreatedAt: created, UpdatedAt: created.Add(time.Hour)}
	done := Task{CreatedAt: created, UpdatedAt: created, Completed: true, CompletedAt: &completed}

	assert.True(t, done.RecencyTime().Equal(completed))
	assert.True(t, open.RecencyTime().Equal(created.Add(time.Hour)))
}
