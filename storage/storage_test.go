package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

func TestNewTokenStore(t *testing.T) {
	srv := miniredis.RunT(t)

	tests := []struct {
		name    string
		session core.SessionConfig
		wantErr bool
	}{
		{name: "default is bolt", session: core.SessionConfig{BoltPath: filepath.Join(t.TempDir(), "a.db")}},
		{name: "bolt", session: core.SessionConfig{Driver: core.SessionDriverBolt, BoltPath: filepath.Join(t.TempDir(), "b.db")}},
		{name: "memory", session: core.SessionConfig{Driver: core.SessionDriverMemory}},
		{name: "redis", session: core.SessionConfig{Driver: core.SessionDriverRedis, RedisURL: "redis://" + srv.Addr()}},
		{name: "unknown", session: core.SessionConfig{Driver: "lol"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewTokenStore(context.Background(), &core.Config{Session: tt.session})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}
}
