package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tts := map[string]struct {
		level logrus.Level
		json  bool
	}{
		"prod": {level: logrus.InfoLevel, json: true},
		"dev":  {level: logrus.DebugLevel, json: false},
		"test": {level: logrus.DebugLevel, json: false},
	}

	for env, tt := range tts {
		l := New(env).(logger)
		assert.Equal(t, tt.level, l.Logger.Level, env)
		_, isJSON := l.Logger.Formatter.(*logrus.JSONFormatter)
		assert.Equal(t, tt.json, isJSON, env)
		assert.Equal(t, env, l.Data["env"], env)
	}
}

func TestWithField(t *testing.T) {
	buf := bytes.Buffer{}
	l := New("prod").(logger)
	l.Logger.Out = &buf

	l.WithField("request_id", "abc").Warnf("retrying %d", 2)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "prod", line["env"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "retrying 2", line["msg"])
}
