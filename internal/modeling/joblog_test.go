package modeling

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobLog_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), JobLogFile)

	log, err := startJobLog(path, 3)
	require.NoError(t, err)

	record, err := ReadJobLog(path)
	require.NoError(t, err)
	require.Equal(t, 3, record.WorkerRank)
	require.False(t, record.Complete)

	require.NoError(t, log.success("0:01:42"))
	record, err = ReadJobLog(path)
	require.NoError(t, err)
	require.True(t, record.Complete)
	require.Equal(t, "0:01:42", record.Timing)
	require.Empty(t, record.Exception)
}

func TestJobLog_FailureKeepsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), JobLogFile)

	log, err := startJobLog(path, 0)
	require.NoError(t, err)
	require.NoError(t, log.failure("engine exited 139", "stack frame details"))

	record, err := ReadJobLog(path)
	require.NoError(t, err)
	require.False(t, record.Complete)
	require.Equal(t, "engine exited 139", record.Exception)
	require.Equal(t, "stack frame details", record.Traceback)
}
