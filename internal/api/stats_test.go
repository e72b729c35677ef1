package api

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/models"
)

func strptr(s string) *string { return &s }

func TestAggregateTasksEmpty(t *testing.T) {
	report := aggregateTasks(nil)

	assert.Zero(t, report.Total)
	assert.Zero(t, report.CompletionRate)
	assert.NotNil(t, report.ByUser)
	assert.Empty(t, report.ByUser)
}

func TestAggregateTasksCountsAndRate(t *testing.T) {
	ada := uuid.New()
	bob := uuid.New()

	tasks := []models.Task{
		{Status: models.StatusCompleted, Priority: models.PriorityHigh, AssignedTo: &ada, AssigneeName: strptr("Ada")},
		{Status: models.StatusCompleted, Priority: models.PriorityLow, AssignedTo: &ada, AssigneeName: strptr("Ada")},
		{Status: models.StatusInProgress, Priority: models.PriorityMedium, AssignedTo: &bob, AssigneeName: strptr("Bob")},
		{Status: models.StatusPending, Priority: models.PriorityMedium},
	}

	report := aggregateTasks(tasks)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Completed)
	assert.Equal(t, 1, report.InProgress)
	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 1, report.High)
	assert.Equal(t, 2, report.Medium)
	assert.Equal(t, 1, report.Low)
	assert.InDelta(t, 50.0, report.CompletionRate, 0.001)

	// Unassigned tasks count in totals but not per user; users appear
	// in first-seen order.
	require.Len(t, report.ByUser, 2)
	assert.Equal(t, "Ada", report.ByUser[0].Name)
	assert.Equal(t, 2, report.ByUser[0].Total)
	assert.Equal(t, 2, report.ByUser[0].Completed)
	assert.Equal(t, "Bob", report.ByUser[1].Name)
	assert.Equal(t, 1, report.ByUser[1].Total)
	assert.Equal(t, 0, report.ByUser[1].Completed)
}

func TestRangeStart(t *testing.T) {
	now := time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

	today := rangeStart("today", now)
	require.NotNil(t, today)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), *today)

	week := rangeStart("week", now)
	require.NotNil(t, week)
	assert.Equal(t, now.AddDate(0, 0, -7), *week)

	month := rangeStart("month", now)
	require.NotNil(t, month)
	assert.Equal(t, now.AddDate(0, -1, 0), *month)

	quarter := rangeStart("quarter", now)
	require.NotNil(t, quarter)
	assert.Equal(t, now.AddDate(0, -3, 0), *quarter)

	assert.Nil(t, rangeStart("all", now))
	assert.Nil(t, rangeStart("", now))
}
