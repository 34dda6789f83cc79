package ldns

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestConfigureLog(t *testing.T) {
	defer Log.SetLevel(Log.GetLevel())

	require.NoError(t, ConfigureLog(LogOptions{Level: "debug"}))
	require.Equal(t, logrus.DebugLevel, Log.GetLevel())

	require.NoError(t, ConfigureLog(LogOptions{}))
	require.Equal(t, logrus.InfoLevel, Log.GetLevel())

	require.Error(t, ConfigureLog(LogOptions{Level: "loud"}))
}
