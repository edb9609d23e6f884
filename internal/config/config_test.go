package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSignalsRestricted(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    bool
	}{
		{"no signals", Signals{}, false},
		{"system name", Signals{SystemName: "iOS"}, true},
		{"platform name", Signals{PlatformName: "iphoneos"}, true},
		{"both", Signals{SystemName: "iOS", PlatformName: "iphoneos"}, true},
		{"android", Signals{SystemName: "Android"}, false},
		{"case sensitive", Signals{SystemName: "ios", PlatformName: "iPhoneOS"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.signals.Restricted())
			require.Equal(t, Platform{Restricted: tt.want}, tt.signals.Platform())
		})
	}
}

func TestLoadSignals(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv("CMAKE_SYSTEM_NAME", "")
		t.Setenv("PLATFORM_NAME", "")

		s, err := LoadSignals()
		require.NoError(t, err)
		require.False(t, s.Restricted())
	})

	t.Run("ios", func(t *testing.T) {
		t.Setenv("CMAKE_SYSTEM_NAME", "iOS")
		t.Setenv("PLATFORM_NAME", "iphoneos")

		s, err := LoadSignals()
		require.NoError(t, err)
		require.Equal(t, "iOS", s.SystemName)
		require.Equal(t, "iphoneos", s.PlatformName)
		require.True(t, s.Platform().Restricted)
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, ".", cfg.Root)
		require.Equal(t, "info", cfg.LogLevel)
		require.False(t, cfg.DryRun)
		require.Equal(t, zerolog.InfoLevel, cfg.Level())
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CMAKEPATCH_ROOT", "/src/espeak-ng")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "/src/espeak-ng", cfg.Root)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{Root: ".", LogLevel: "debug"}, ""},
		{"empty root", Config{LogLevel: "info"}, "root"},
		{"bad level", Config{Root: ".", LogLevel: "loud"}, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
