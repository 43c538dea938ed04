package classifier_test

import (
	"testing"
	"time"

	"taskboard/internal/classifier"
	"taskboard/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func day(offset int) string {
	return now.AddDate(0, 0, offset).Format("2006-01-02")
}

func titles(tasks []*task.Task) []string {
	res := make([]string, len(tasks))
	for i, t := range tasks {
		res[i] = t.Title
	}
	return res
}

// TestClassify checks the bucket edges
func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		offset   time.Duration
		expected task.Priority
	}{
		{name: "overdue", offset: -72 * time.Hour, expected: task.PriorityHigh},
		{name: "today", offset: 0, expected: task.PriorityHigh},
		{name: "exactly 14 days", offset: 14 * 24 * time.Hour, expected: task.PriorityHigh},
		{name: "just after 14 days", offset: 14*24*time.Hour + time.Second, expected: task.PriorityMedium},
		{name: "20 days", offset: 20 * 24 * time.Hour, expected: task.PriorityMedium},
		{name: "exactly 30 days", offset: 30 * 24 * time.Hour, expected: task.PriorityMedium},
		{name: "just after 30 days", offset: 30*24*time.Hour + time.Second, expected: task.PriorityLow},
		{name: "a year", offset: 365 * 24 * time.Hour, expected: task.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifier.Classify(now.Add(tt.offset), now))
		})
	}
}

// TestClassifyDate covers raw stored values including garbage
func TestClassifyDate(t *testing.T) {
	assert.Equal(t, task.PriorityHigh, classifier.ClassifyDate(day(14), now))
	assert.Equal(t, task.PriorityMedium, classifier.ClassifyDate(day(15), now))
	assert.Equal(t, task.PriorityMedium, classifier.ClassifyDate(day(30), now))
	assert.Equal(t, task.PriorityLow, classifier.ClassifyDate(day(31), now))
	assert.Equal(t, task.PriorityHigh, classifier.ClassifyDate("2026-03-05T10:00:00Z", now))

	assert.Equal(t, task.PriorityLow, classifier.ClassifyDate("", now))
	assert.Equal(t, task.PriorityLow, classifier.ClassifyDate("next tuesday", now))
	assert.Equal(t, task.PriorityLow, classifier.ClassifyDate("2026-02-30", now))
}

// TestClassify_MidDayNow keeps the inclusive edge when now carries a time of day
func TestClassify_MidDayNow(t *testing.T) {
	midday := now.Add(12 * time.Hour)
	due, ok := classifier.ParseDueDate(day(14))
	require.True(t, ok)

	assert.Equal(t, task.PriorityHigh, classifier.Classify(due, midday))
	assert.Equal(t, task.PriorityMedium, classifier.ClassifyDate(day(15), midday))
}

// TestFilterAndSort_All returns every task once, ascending by due date
func TestFilterAndSort_All(t *testing.T) {
	tasks := []*task.Task{
		{Title: "c", DueDate: day(40)},
		{Title: "a", DueDate: day(-2)},
		{Title: "b", DueDate: day(20)},
	}

	res := classifier.FilterAndSort(tasks, task.FilterAll, now)

	assert.Equal(t, []string{"a", "b", "c"}, titles(res))
	assert.Equal(t, []string{"c", "a", "b"}, titles(tasks), "input must not be reordered")
}

// TestFilterAndSort_Buckets checks each bucket against the live due date
func TestFilterAndSort_Buckets(t *testing.T) {
	tasks := []*task.Task{
		{Title: "low-31", DueDate: day(31)},
		{Title: "high-14", DueDate: day(14)},
		{Title: "medium-30", DueDate: day(30)},
		{Title: "high-past", DueDate: day(-10)},
		{Title: "medium-15", DueDate: day(15)},
		{Title: "broken", DueDate: "soon"},
		{Title: "low-90", DueDate: day(90)},
	}

	tests := []struct {
		filter   task.Filter
		expected []string
	}{
		{filter: task.FilterHigh, expected: []string{"high-past", "high-14"}},
		{filter: task.FilterMedium, expected: []string{"medium-15", "medium-30"}},
		{filter: task.FilterLow, expected: []string{"low-31", "low-90"}},
		{filter: task.FilterAll, expected: []string{"high-past", "high-14", "medium-15", "medium-30", "low-31", "low-90", "broken"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			assert.Equal(t, tt.expected, titles(classifier.FilterAndSort(tasks, tt.filter, now)))
		})
	}
}

// TestFilterAndSort_IgnoresStoredPriority keeps the live re-derivation
func TestFilterAndSort_IgnoresStoredPriority(t *testing.T) {
	tasks := []*task.Task{
		{Title: "stale", DueDate: day(3), Priority: task.PriorityLow},
		{Title: "fresh", DueDate: day(60), Priority: task.PriorityLow},
	}

	assert.Equal(t, []string{"stale"}, titles(classifier.FilterAndSort(tasks, task.FilterHigh, now)))
	assert.Equal(t, []string{"fresh"}, titles(classifier.FilterAndSort(tasks, task.FilterLow, now)))
}

// TestFilterAndSort_StableTies keeps input order for equal due dates
func TestFilterAndSort_StableTies(t *testing.T) {
	tasks := []*task.Task{
		{Title: "first", DueDate: day(5)},
		{Title: "broken-1", DueDate: "?"},
		{Title: "second", DueDate: day(5)},
		{Title: "earlier", DueDate: day(1)},
		{Title: "broken-2", DueDate: ""},
		{Title: "third", DueDate: day(5)},
	}

	res := classifier.FilterAndSort(tasks, task.FilterAll, now)
	assert.Equal(t, []string{"earlier", "first", "second", "third", "broken-1", "broken-2"}, titles(res))
}

// TestFilterAndSort_Idempotent sorting an already sorted view changes nothing
func TestFilterAndSort_Idempotent(t *testing.T) {
	tasks := []*task.Task{
		{Title: "x", DueDate: day(9)},
		{Title: "y", DueDate: "bad"},
		{Title: "z", DueDate: day(2)},
		{Title: "w", DueDate: day(9)},
	}

	once := classifier.FilterAndSort(tasks, task.FilterAll, now)
	twice := classifier.FilterAndSort(once, task.FilterAll, now)
	assert.Equal(t, once, twice)
}

// TestFilterAndSort_Scenarios are the two reference scenarios
func TestFilterAndSort_Scenarios(t *testing.T) {
	t.Run("medium only", func(t *testing.T) {
		tasks := []*task.Task{
			{Title: "5d", DueDate: day(5)},
			{Title: "20d", DueDate: day(20)},
			{Title: "40d", DueDate: day(40)},
		}
		assert.Equal(t, []string{"20d"}, titles(classifier.FilterAndSort(tasks, task.FilterMedium, now)))
	})

	t.Run("all by due date", func(t *testing.T) {
		tasks := []*task.Task{
			{Title: "10d", DueDate: day(10), Status: task.StageTaskAdded},
			{Title: "1d", DueDate: day(1), Status: task.StageCompleted},
		}
		assert.Equal(t, []string{"1d", "10d"}, titles(classifier.FilterAndSort(tasks, task.FilterAll, now)))
	})
}

// TestFilterAndSort_Empty handles nil input and nil entries
func TestFilterAndSort_Empty(t *testing.T) {
	assert.Empty(t, classifier.FilterAndSort(nil, task.FilterAll, now))
	assert.Equal(t, []string{"a"}, titles(classifier.FilterAndSort([]*task.Task{nil, {Title: "a", DueDate: day(1)}}, task.FilterAll, now)))
}

// TestDiverged reports stale stored priorities
func TestDiverged(t *testing.T) {
	assert.False(t, classifier.Diverged(&task.Task{DueDate: day(3), Priority: task.PriorityHigh}, now))
	assert.True(t, classifier.Diverged(&task.Task{DueDate: day(3), Priority: task.PriorityLow}, now))
	assert.False(t, classifier.Diverged(&task.Task{DueDate: day(3)}, now))
	assert.True(t, classifier.Diverged(&task.Task{DueDate: "??", Priority: task.PriorityHigh}, now))
}

// TestRenderStages checks the progress projection
func TestRenderStages(t *testing.T) {
	t.Run("test planning", func(t *testing.T) {
		views := classifier.RenderStages(task.StageTestPlanning)
		require.Len(t, views, 7)
		for i, v := range views {
			assert.Equal(t, task.Stages[i], v.Stage)
			assert.Equal(t, i <= 2, v.Filled, "stage %d", i)
		}
	})

	t.Run("completed fills everything", func(t *testing.T) {
		for _, v := range classifier.RenderStages(task.StageCompleted) {
			assert.True(t, v.Filled)
		}
	})

	t.Run("task added fills the first", func(t *testing.T) {
		views := classifier.RenderStages(task.StageTaskAdded)
		assert.True(t, views[0].Filled)
		assert.False(t, views[1].Filled)
	})

	t.Run("unknown fills nothing", func(t *testing.T) {
		for _, status := range []task.Stage{"", "Deployed", "test planning"} {
			views := classifier.RenderStages(status)
			require.Len(t, views, 7)
			for _, v := range views {
				assert.False(t, v.Filled)
			}
		}
	})
}

// TestClassifyDate_DateOnlyIsUTC дата без времени считается полночью UTC при любой зоне now
func TestClassifyDate_DateOnlyIsUTC(t *testing.T) {
	kiritimati := time.FixedZone("UTC+14", 14*60*60)
	localNow := time.Date(2026, time.October, 19, 9, 30, 0, 0, kiritimati)

	assert.Equal(t, task.PriorityHigh, classifier.ClassifyDate("2026-11-01", localNow))
	assert.Equal(t, task.PriorityMedium, classifier.ClassifyDate("2026-11-02", localNow))

	due, ok := classifier.ParseDueDate("2026-11-02")
	require.True(t, ok)
	assert.Equal(t, time.UTC, due.Location())
}
