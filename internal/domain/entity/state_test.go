package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_ForwardOnly(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"not_started -> in_progress", AreaStatusNotStarted, AreaStatusInProgress, true},
		{"in_progress -> completed", AreaStatusInProgress, AreaStatusCompleted, true},
		{"completed -> locked", AreaStatusCompleted, AreaStatusLocked, true},
		{"not_started -> completed (пропуск шага)", AreaStatusNotStarted, AreaStatusCompleted, false},
		{"not_started -> locked (пропуск шагов)", AreaStatusNotStarted, AreaStatusLocked, false},
		{"in_progress -> locked (пропуск шага)", AreaStatusInProgress, AreaStatusLocked, false},
		{"in_progress -> not_started (назад)", AreaStatusInProgress, AreaStatusNotStarted, false},
		{"completed -> in_progress (назад)", AreaStatusCompleted, AreaStatusInProgress, false},
		{"locked -> completed (назад)", AreaStatusLocked, AreaStatusCompleted, false},
		{"locked терминален", AreaStatusLocked, AreaStatusInProgress, false},
		{"неизвестный статус", "archived", AreaStatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanTransition_NoSelfLoops(t *testing.T) {
	statuses := []string{AreaStatusNotStarted, AreaStatusInProgress, AreaStatusCompleted, AreaStatusLocked}
	for _, s := range statuses {
		assert.False(t, CanTransition(s, s), "петля для статуса %s должна быть запрещена", s)
	}
}

func TestAssertTransition_ReturnsStateTransitionError(t *testing.T) {
	err := AssertTransition(AreaStatusLocked, AreaStatusInProgress)
	require.Error(t, err)

	var stErr *StateTransitionError
	require.True(t, errors.As(err, &stErr), "ошибка должна быть *StateTransitionError")
	assert.Equal(t, "transition", stErr.Method)
	assert.Equal(t, AreaStatusLocked, stErr.Status)
	assert.Contains(t, stErr.Error(), "locked")
}

func TestAssertCanWriteMCQ(t *testing.T) {
	// MCQ-ответы можно писать во всех статусах, кроме locked:
	// перезапись из completed запускает каскад инвалидации
	assert.NoError(t, AssertCanWriteMCQ(AreaStatusNotStarted))
	assert.NoError(t, AssertCanWriteMCQ(AreaStatusInProgress))
	assert.NoError(t, AssertCanWriteMCQ(AreaStatusCompleted))

	err := AssertCanWriteMCQ(AreaStatusLocked)
	require.Error(t, err)
	var stErr *StateTransitionError
	require.True(t, errors.As(err, &stErr))
	assert.Equal(t, "save_mcq_answers", stErr.Method)
}

func TestGuards_RequireInProgress(t *testing.T) {
	guards := []struct {
		name  string
		guard func(string) error
	}{
		{"core clarifiers", AssertCanGenerateCoreClarifiers},
		{"followup clarifiers", AssertCanGenerateFollowups},
		{"score area", AssertCanScoreArea},
	}

	for _, g := range guards {
		t.Run(g.name, func(t *testing.T) {
			assert.NoError(t, g.guard(AreaStatusInProgress))

			for _, status := range []string{AreaStatusNotStarted, AreaStatusCompleted, AreaStatusLocked} {
				err := g.guard(status)
				require.Error(t, err, "операция должна быть запрещена в статусе %s", status)

				var stErr *StateTransitionError
				require.True(t, errors.As(err, &stErr))
				assert.Equal(t, status, stErr.Status)
			}
		})
	}
}

func TestAssertWritable(t *testing.T) {
	assert.NoError(t, AssertWritable(AreaStatusNotStarted, "save_clarifier_answer"))
	assert.NoError(t, AssertWritable(AreaStatusInProgress, "save_clarifier_answer"))

	for _, status := range []string{AreaStatusCompleted, AreaStatusLocked} {
		err := AssertWritable(status, "save_clarifier_answer")
		require.Error(t, err)

		var stErr *StateTransitionError
		require.True(t, errors.As(err, &stErr))
		assert.Equal(t, "save_clarifier_answer", stErr.Method)
	}
}
