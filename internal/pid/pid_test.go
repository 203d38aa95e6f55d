package pid_test

import (
	"testing"

	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	require.NoError(t, pid.Remove())
	assert.False(t, pid.Active(), "no lock without a PID file")

	require.NoError(t, pid.Write())
	defer func() {
		require.NoError(t, pid.Remove())
	}()
	assert.True(t, pid.Active(), "this process holds the lock")

	// A second instance must be refused while this process lives.
	err := pid.Write()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAlreadyRunning))
}

func TestActiveAfterRemove(t *testing.T) {
	require.NoError(t, pid.Write())
	require.NoError(t, pid.Remove())
	assert.False(t, pid.Active())
}

func TestRemoveWithoutFile(t *testing.T) {
	require.NoError(t, pid.Remove())
	assert.NoError(t, pid.Remove())
}
