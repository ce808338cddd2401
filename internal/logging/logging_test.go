package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// 修改全局 logger，不能并行执行。
func TestSetup(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, Setup("warn", nil))
	})

	var buf bytes.Buffer
	require.NoError(t, Setup("debug", &buf))
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("code", "test").Debug("hello")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "code=test")

	require.NoError(t, Setup("", &buf))
	require.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	require.Error(t, Setup("loud", &buf))
}
