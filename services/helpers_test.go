package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/competition-system/models"
)

func TestProgressTransitionSources(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.ProgressStatus{models.ProgressInProgress, models.ProgressSubmitted},
		sourcesFor(models.ProgressApproved))
	assert.ElementsMatch(t,
		[]models.ProgressStatus{models.ProgressNotStarted, models.ProgressInProgress, models.ProgressSubmitted},
		sourcesFor(models.ProgressRejected))
	assert.Equal(t, []models.ProgressStatus{models.ProgressInProgress}, sourcesFor(models.ProgressSubmitted))

	for status := range progressTransitions {
		if status.IsTerminal() {
			assert.Empty(t, progressTransitions[status], "%s must be terminal", status)
		}
	}
	assert.False(t, isValidProgressTransition(models.ProgressNotStarted, models.ProgressApproved))
}
