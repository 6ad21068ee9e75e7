package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/media/library", "/media/library"},
		{"single trailing slash", "/media/library/", "/media/library"},
		{"multiple trailing slashes", "/media/library///", "/media/library"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDirArg(tt.in))
		})
	}
}

func TestValidate_Processes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.Processes = 0
	require.Error(t, cfg.Validate())

	cfg.Processes = 1
	require.NoError(t, cfg.Validate())
}

func TestValidate_ColorMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    ColorMode
		wantErr bool
	}{
		{"auto is valid", ColorAuto, false},
		{"always is valid", ColorAlways, false},
		{"never is valid", ColorNever, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "rainbow", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.ColorMode = tt.mode
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_AV1OnlyTrimsPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.VideoEncoderPriority = []string{"libsvtav1", "libx265", "libaom-av1"}
	cfg.AV1Only = true

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"libsvtav1"}, cfg.VideoEncoderPriority)
}

func TestValidate_AudioOnlyAndPhoneMutuallyExclusive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.AudioOnly = true
	cfg.IPhoneSpecificTask = true

	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiresInputDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = false
	cfg.InputDir = ""
	assert.Error(t, cfg.Validate())

	cfg.InputDir = "/in"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CheckOnlySkipsPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.InputDir = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		wantErr bool
	}{
		{"separate directories", "/media/in", "/media/out", false},
		{"output equals input", "/media/lib", "/media/lib", true},
		{"output inside input", "/media/lib", "/media/lib/output", true},
		{"output is parent of input", "/media/lib/sub", "/media/lib", false},
		{"similar prefix not nested", "/media/library", "/media/library2", false},
		{"empty output means unset", "/media/library", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ValidatePaths(tt.input, tt.output)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeVideo, cfg.Mode())
	assert.Equal(t, 4, cfg.Processes)
	assert.Equal(t, []string{"libsvtav1"}, cfg.VideoEncoderPriority)
	assert.Equal(t, 1.0, cfg.OversizeRatio)
	assert.Equal(t, 23, cfg.ManualCRF)
	assert.False(t, cfg.DryRun)
	assert.Contains(t, cfg.LanguageAllowList, "eng")
}

func TestConfig_Mode(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ModeVideo, cfg.Mode())

	cfg.AudioOnly = true
	assert.Equal(t, ModeAudioOnly, cfg.Mode())

	cfg.AudioOnly = false
	cfg.IPhoneSpecificTask = true
	assert.Equal(t, ModePhonePreset, cfg.Mode())
}

func TestEncodedRootDirName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VideoEncoderPriority = []string{"libsvtav1"}
	assert.Equal(t, "libsvtav1_encoded", cfg.EncodedRootDirName())
}
