package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uninet.id/campuslink/pkg/apperror"
)

func TestTransitionAllowed(t *testing.T) {
	got, err := Transition("pending", "accepted", "pending")
	require.NoError(t, err)
	assert.Equal(t, Status("accepted"), got)
}

func TestTransitionIdempotentNoOp(t *testing.T) {
	// Requesting the current status succeeds without consulting allowedFrom.
	got, err := Transition("accepted", "accepted")
	require.NoError(t, err)
	assert.Equal(t, Status("accepted"), got)
}

func TestTransitionRejected(t *testing.T) {
	got, err := Transition("completed", "processing", "unchosen")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.Equal(t, Status("completed"), got)
}

func TestStatusFieldSet(t *testing.T) {
	var f StatusField
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.Set("active", at)
	assert.Equal(t, Status("active"), f.Status)
	assert.Equal(t, at, f.StatusChangedAt)
}

func TestGraphStep(t *testing.T) {
	strict := Graph{
		"unchosen":   {"processing"},
		"processing": {"completed", "unchosen"},
	}

	got, err := strict.Step("unchosen", "processing")
	require.NoError(t, err)
	assert.Equal(t, Status("processing"), got)

	// processing may regress to unchosen in the strict graph
	got, err = strict.Step("processing", "unchosen")
	require.NoError(t, err)
	assert.Equal(t, Status("unchosen"), got)

	// but completed is terminal
	_, err = strict.Step("completed", "processing")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	// idempotent
	got, err = strict.Step("completed", "completed")
	require.NoError(t, err)
	assert.Equal(t, Status("completed"), got)
}
