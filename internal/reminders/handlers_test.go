package reminders_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kwhite/taskboard/internal/database/models"
	"github.com/kwhite/taskboard/internal/reminders"
	"github.com/kwhite/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDueSweep_NoDueTasks(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	// Task with no due date is never swept up.
	testutil.CreateTestTask(t, tc.DB, tc.Member, "undated")

	// Done task inside the window is skipped.
	due := time.Now().Add(2 * time.Hour)
	done := testutil.CreateTestTask(t, tc.DB, tc.Member, "finished")
	done.Status = models.TaskStatusDone
	done.DueDate = &due
	require.NoError(t, tc.DB.Save(done).Error)

	// Due beyond the window is skipped.
	farOut := time.Now().Add(96 * time.Hour)
	later := testutil.CreateTestTask(t, tc.DB, tc.Member, "later")
	later.DueDate = &farOut
	require.NoError(t, tc.DB.Save(later).Error)

	// With nothing due, no enqueue happens and a nil client is never touched.
	handler := reminders.NewHandler(tc.DB, slog.Default(), nil)

	sweep, err := reminders.NewDueSweepTask(reminders.DueSweepPayload{WindowHours: 24})
	require.NoError(t, err)

	err = handler.HandleDueSweep(testutil.TestContext(t), sweep)
	assert.NoError(t, err)
}

func TestHandleTaskDueSoon(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	handler := reminders.NewHandler(tc.DB, slog.Default(), nil)

	t.Run("open task logs a reminder", func(t *testing.T) {
		due := time.Now().Add(3 * time.Hour)
		task := testutil.CreateTestTask(t, tc.DB, tc.Member, "due soon")
		task.DueDate = &due
		require.NoError(t, tc.DB.Save(task).Error)

		reminder, err := reminders.NewTaskDueSoonTask(reminders.TaskDueSoonPayload{
			TaskID:         task.ID,
			UserID:         task.UserID,
			OrganizationID: task.OrganizationID,
			Title:          task.Title,
			DueAt:          due.Unix(),
		})
		require.NoError(t, err)

		assert.NoError(t, handler.HandleTaskDueSoon(testutil.TestContext(t), reminder))
	})

	t.Run("vanished task is skipped without error", func(t *testing.T) {
		reminder, err := reminders.NewTaskDueSoonTask(reminders.TaskDueSoonPayload{
			Title: "already deleted",
			DueAt: time.Now().Unix(),
		})
		require.NoError(t, err)

		assert.NoError(t, handler.HandleTaskDueSoon(testutil.TestContext(t), reminder))
	})
}

func TestTaskTypeNames(t *testing.T) {
	sweep, err := reminders.NewDueSweepTask(reminders.DueSweepPayload{WindowHours: 12})
	require.NoError(t, err)
	assert.Equal(t, reminders.TypeDueSweep, sweep.Type())

	var _ *asynq.Task = sweep
}
