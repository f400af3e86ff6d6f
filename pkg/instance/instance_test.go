package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDPrecedence(t *testing.T) {
	t.Setenv("ZEPZEP_INSTANCE_ID", "cron-1")
	t.Setenv("DYNO", "worker.2")
	require.Equal(t, "cron-1", GetID())

	t.Setenv("ZEPZEP_INSTANCE_ID", "")
	require.Equal(t, "worker.2", GetID())

	t.Setenv("DYNO", "")
	require.NotEmpty(t, GetID())
}
