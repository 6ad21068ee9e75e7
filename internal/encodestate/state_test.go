package encodestate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := Path(dir)

	fp := Fingerprint("abc123", "video", "mp4", []string{"libsvtav1"})
	want := &State{PlanFingerprint: fp, Encoder: "libsvtav1", CRF: 30, AttemptCount: 1}

	require.NoError(t, Save(p, want))

	got, err := Load(p)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.PlanFingerprint, got.PlanFingerprint)
	assert.Equal(t, want.Encoder, got.Encoder)
	assert.Equal(t, want.CRF, got.CRF)
	assert.Equal(t, want.AttemptCount, got.AttemptCount)
}

func TestLoad_MissingFileReturnsNilNoError(t *testing.T) {
	dir := t.TempDir()
	got, err := Load(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolve_FingerprintMismatchDeletesState(t *testing.T) {
	dir := t.TempDir()
	p := Path(dir)
	fp := Fingerprint("abc123", "video", "mp4", []string{"libsvtav1"})
	require.NoError(t, Save(p, &State{PlanFingerprint: fp, Encoder: "libsvtav1", CRF: 30}))

	otherFp := Fingerprint("def456", "video", "mp4", []string{"libsvtav1"})
	state, ok := Resolve(p, otherFp)
	assert.False(t, ok)
	assert.Nil(t, state)

	got, err := Load(p)
	require.NoError(t, err)
	assert.Nil(t, got, "stale sidecar should have been deleted")
}

func TestResolve_MatchingFingerprintReturnsState(t *testing.T) {
	dir := t.TempDir()
	p := Path(dir)
	fp := Fingerprint("abc123", "video", "mp4", []string{"libsvtav1"})
	require.NoError(t, Save(p, &State{PlanFingerprint: fp, Encoder: "libsvtav1", CRF: 30}))

	state, ok := Resolve(p, fp)
	require.True(t, ok)
	require.NotNil(t, state)
	assert.Equal(t, 30, state.CRF)
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("md5", "video", "mp4", []string{"libsvtav1", "libx265"})
	b := Fingerprint("md5", "video", "mp4", []string{"libsvtav1", "libx265"})
	assert.Equal(t, a, b)

	c := Fingerprint("md5", "video", "mkv", []string{"libsvtav1", "libx265"})
	assert.NotEqual(t, a, c)
}
