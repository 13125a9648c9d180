package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFirstCorrectAnswerScoresBasePoints(t *testing.T) {
	st := NewState()

	tr := Apply(st, true, TypeCapitalMCQ, "FR", ModeClassic)

	assert.Equal(t, 100, tr.Points)
	assert.Equal(t, 100, st.Score)
	assert.Equal(t, 100, st.HighScore)
	assert.True(t, tr.NewHighScore)
	assert.Equal(t, 1, st.Streak)
	assert.Equal(t, 1, st.BestStreak)
	assert.Equal(t, 1, st.CorrectInLevel)
	assert.Equal(t, 1, st.Mastery["FR"])
	assert.True(t, st.Completed["capital_mcq-FR"])
}

func TestApplyStreakAndLevelMultipliers(t *testing.T) {
	tests := []struct {
		name   string
		streak int
		level  int
		mode   ScoreMode
		want   int
	}{
		{"classic streak 3", 3, 1, ModeClassic, 130},
		{"arcade streak 3", 3, 1, ModeArcade, 160},
		{"level 3 no streak", 0, 3, ModeClassic, 140},
		{"classic streak 2 level 2", 2, 2, ModeClassic, 144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState()
			st.Streak = tt.streak
			st.Level = tt.level

			tr := Apply(st, true, TypeCapitalMCQ, "FR", tt.mode)
			assert.Equal(t, tt.want, tr.Points)
		})
	}
}

func TestApplyFiveCorrectAnswersLevelsUpOnce(t *testing.T) {
	st := NewState()
	st.Hearts = 2

	subjects := []string{"FR", "DE", "ES", "IT", "PT"}
	var leveled int
	for i, code := range subjects {
		tr := Apply(st, true, TypeCapitalMCQ, code, ModeClassic)
		if tr.LeveledUp {
			leveled++
			require.Equal(t, len(subjects)-1, i, "level up must come on the fifth answer")
		}
	}

	assert.Equal(t, 1, leveled)
	assert.Equal(t, 2, st.Level)
	assert.Equal(t, 0, st.CorrectInLevel)
	assert.Equal(t, 5, st.Streak)
	assert.Equal(t, 3, st.Hearts, "streak milestone refills the lost heart")
}

func TestApplyStreakMilestoneRestoresHeart(t *testing.T) {
	st := NewState()
	st.Hearts = 1
	st.Streak = 4
	st.CorrectInLevel = 0

	tr := Apply(st, true, TypeFlagMatch, "DE", ModeClassic)

	assert.True(t, tr.HeartGained)
	assert.Equal(t, 2, st.Hearts)
	assert.Equal(t, 5, st.Streak)
}

func TestApplyHeartsNeverExceedCap(t *testing.T) {
	st := NewState()
	st.Streak = 4

	tr := Apply(st, true, TypeFlagMatch, "DE", ModeClassic)

	assert.False(t, tr.HeartGained)
	assert.Equal(t, MaxHearts, st.Hearts)
}

func TestApplyIncorrectAnswerResetsRunCounters(t *testing.T) {
	st := NewState()
	st.Streak = 4
	st.BestStreak = 4
	st.CorrectInLevel = 3
	st.Score = 800

	tr := Apply(st, false, TypeCapitalMCQ, "FR", ModeClassic)

	assert.Equal(t, 0, tr.Points)
	assert.True(t, tr.HeartLost)
	assert.False(t, tr.GameOver)
	assert.Equal(t, 0, st.Streak)
	assert.Equal(t, 0, st.CorrectInLevel)
	assert.Equal(t, 2, st.Hearts)
	assert.Equal(t, 800, st.Score, "score survives a miss")
	assert.Equal(t, 4, st.BestStreak)
	assert.True(t, st.Completed["capital_mcq-FR"], "a missed question still counts as seen")
	assert.Zero(t, st.Mastery["FR"])
}

func TestApplyLastHeartEndsTheRun(t *testing.T) {
	st := NewState()
	st.Hearts = 1

	tr := Apply(st, false, TypeFlagMatch, "DE", ModeClassic)

	assert.True(t, tr.GameOver)
	assert.Equal(t, 0, st.Hearts)
	assert.True(t, st.GameOver)
}

func TestApplyIgnoredAfterGameOver(t *testing.T) {
	st := NewState()
	st.Hearts = 1
	Apply(st, false, TypeFlagMatch, "DE", ModeClassic)
	require.True(t, st.GameOver)

	before := *st
	tr := Apply(st, true, TypeCapitalMCQ, "FR", ModeClassic)

	assert.True(t, tr.GameOver)
	assert.Equal(t, 0, tr.Points)
	assert.Equal(t, before.Score, st.Score)
	assert.Equal(t, before.Streak, st.Streak)
	assert.Equal(t, 0, st.Hearts)

	tr = Apply(st, false, TypeCapitalMCQ, "FR", ModeClassic)
	assert.False(t, tr.HeartLost)
	assert.Equal(t, 0, st.Hearts, "hearts never go below zero")
}

func TestApplyNewHighScoreOnlyWhenExceeded(t *testing.T) {
	st := NewState()
	st.HighScore = 150

	tr := Apply(st, true, TypeCapitalMCQ, "FR", ModeClassic)
	assert.False(t, tr.NewHighScore)
	assert.Equal(t, 150, st.HighScore)

	tr = Apply(st, true, TypeCapitalMCQ, "DE", ModeClassic)
	assert.True(t, tr.NewHighScore)
	assert.Equal(t, 210, st.Score)
	assert.Equal(t, 210, st.HighScore)
}

func TestRestartRevivesAtLevelStart(t *testing.T) {
	st := NewState()
	st.Score = 1350
	st.HighScore = 1500
	st.Level = 4
	st.LevelStartScore = 1200
	st.Streak = 0
	st.Hearts = 0
	st.GameOver = true
	st.Mastery["FR"] = 3
	st.Completed["capital_mcq-FR"] = true

	Restart(st)

	assert.Equal(t, MaxHearts, st.Hearts)
	assert.False(t, st.GameOver)
	assert.Equal(t, 0, st.Streak)
	assert.Equal(t, 0, st.CorrectInLevel)
	assert.Equal(t, 4, st.Level, "restart keeps the level")
	assert.Equal(t, 1200, st.Score, "score rolls back to the level start")
	assert.Equal(t, 1500, st.HighScore)
	assert.Equal(t, 3, st.Mastery["FR"])
	assert.True(t, st.Completed["capital_mcq-FR"])
}

func TestLevelUpRecordsScoreCheckpoint(t *testing.T) {
	st := NewState()
	for i := 0; i < correctPerLevel; i++ {
		Apply(st, true, TypeCapitalMCQ, "FR", ModeClassic)
	}

	require.Equal(t, 2, st.Level)
	assert.Equal(t, st.Score, st.LevelStartScore)

	Apply(st, true, TypeCapitalMCQ, "DE", ModeClassic)
	assert.Greater(t, st.Score, st.LevelStartScore)
}

func TestResetKeepsLifetimeCounters(t *testing.T) {
	st := NewState()
	st.Score = 900
	st.HighScore = 2000
	st.Streak = 3
	st.BestStreak = 12
	st.Level = 6
	st.Hearts = 1
	st.Mastery["FR"] = 5
	st.Completed["capital_mcq-FR"] = true
	st.GameOver = true

	Reset(st)

	assert.Equal(t, 0, st.Score)
	assert.Equal(t, 0, st.Streak)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, MaxHearts, st.Hearts)
	assert.False(t, st.GameOver)
	assert.Empty(t, st.Completed)
	assert.Equal(t, 2000, st.HighScore)
	assert.Equal(t, 12, st.BestStreak)
	assert.Equal(t, 5, st.Mastery["FR"])
}
