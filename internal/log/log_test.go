// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package log

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/aikokb/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       types.LogConfig
		wantDebug bool
		wantErr   bool
	}{
		{"default is info", types.LogConfig{}, false, false},
		{"debug level", types.LogConfig{Level: "debug"}, true, false},
		{"development console", types.LogConfig{Level: "debug", Development: true}, true, false},
		{"warn hides info", types.LogConfig{Level: "warn"}, false, false},
		{"unknown level", types.LogConfig{Level: "chatty"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDebug, l.V(1).Enabled())
		})
	}
}

func TestSetLogger(t *testing.T) {
	old := Logger()
	t.Cleanup(func() { SetLogger(old) })

	SetLogger(logr.Discard())
	assert.False(t, Logger().Enabled())

	l, err := New(types.LogConfig{Level: "info"})
	require.NoError(t, err)
	SetLogger(l)
	assert.True(t, Logger().Enabled())
	assert.False(t, Logger().V(1).Enabled())
}
