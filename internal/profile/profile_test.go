package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ventsim/internal/breath"
)

func writeProfile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func requireLoadError(t *testing.T, err error, code string) *LoadError {
	t.Helper()
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, code, le.Code, le.Message)
	return le
}

func TestLoad_YAML(t *testing.T) {
	p, err := Load("testdata/adult.yaml")
	require.NoError(t, err)

	assert.Equal(t, "adult", p.Name)
	assert.Equal(t, 3, p.BreathCount(1))
	assert.Equal(t, "testdata/adult.yaml", p.Path)

	params, err := p.Parameters()
	require.NoError(t, err)
	assert.Equal(t, 15.0, params.BreathsPerMinute)
	assert.Equal(t, 5.0, params.PEEP)
	assert.Equal(t, 0.05, params.Compliance)
	assert.Equal(t, 75.0, params.TidalVolumePercent, "unset fields keep defaults")
	assert.Equal(t, breath.DerivationInhaleHold, params.Derivation)
}

func TestLoad_CUE(t *testing.T) {
	p, err := Load("testdata/child.cue")
	require.NoError(t, err)

	assert.Equal(t, "child", p.Name)
	assert.Equal(t, 1, p.BreathCount(1))

	params, err := p.Parameters()
	require.NoError(t, err)
	assert.Equal(t, 28.0, params.BreathsPerMinute)
	assert.Equal(t, 40.0, params.TidalVolumePercent)
	assert.Equal(t, 1.5, params.InspExpRatio)
	assert.Equal(t, breath.DerivationInhale, params.Derivation)
}

func TestLoad_EmptyYAML(t *testing.T) {
	p, err := Load(writeProfile(t, "empty.yaml", ""))
	require.NoError(t, err)

	params, err := p.Parameters()
	require.NoError(t, err)
	assert.Equal(t, breath.DefaultParameters(), params)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	_, err := Load(writeProfile(t, "typo.yaml", "peep: 5\npeeps: 6\n"))
	le := requireLoadError(t, err, ErrCodeParseFailed)
	assert.Equal(t, 2, le.Line)
}

func TestLoad_YAMLOutOfRangeResolvesInvalid(t *testing.T) {
	p, err := Load(writeProfile(t, "fast.yaml", "breaths_per_minute: 40\n"))
	require.NoError(t, err)

	_, err = p.Parameters()
	assert.True(t, breath.IsInvalidConfiguration(err))
}

func TestLoad_CUESchemaViolation(t *testing.T) {
	_, err := Load(writeProfile(t, "fast.cue", "breaths_per_minute: 40\n"))
	requireLoadError(t, err, ErrCodeSchema)
}

func TestLoad_CUEUnknownField(t *testing.T) {
	_, err := Load(writeProfile(t, "typo.cue", "peep: 5\npeeps: 6\n"))
	le := requireLoadError(t, err, ErrCodeParseFailed)
	assert.Equal(t, 2, le.Line)
}

func TestLoad_CUESyntaxError(t *testing.T) {
	_, err := Load(writeProfile(t, "broken.cue", "peep: {\n"))
	requireLoadError(t, err, ErrCodeParseFailed)
}

func TestLoad_InvalidDerivation(t *testing.T) {
	_, err := Load(writeProfile(t, "d.yaml", "derivation: exhale\n"))
	requireLoadError(t, err, ErrCodeInvalidValue)

	_, err = Load(writeProfile(t, "d.cue", `derivation: "exhale"`+"\n"))
	requireLoadError(t, err, ErrCodeSchema)
}

func TestLoad_InvalidBreaths(t *testing.T) {
	_, err := Load(writeProfile(t, "b.yaml", "breaths: 0\n"))
	requireLoadError(t, err, ErrCodeInvalidValue)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	requireLoadError(t, err, ErrCodeNotFound)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeProfile(t, "p.toml", "peep = 5\n"))
	requireLoadError(t, err, ErrCodeUnsupported)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeParseFailed, Message: "bad", Path: "p.yaml", Line: 3}
	assert.Equal(t, "p.yaml:3: E010: bad", err.Error())

	err = &LoadError{Code: ErrCodeNotFound, Message: "gone"}
	assert.Equal(t, "E005: gone", err.Error())
}

func TestOverrides_MergeWithFlags(t *testing.T) {
	p, err := Load("testdata/adult.yaml")
	require.NoError(t, err)

	flags := breath.Overrides{PEEP: breath.Ptr(8.0)}
	params, err := breath.Resolve(p.Overrides().Merge(flags))
	require.NoError(t, err)

	assert.Equal(t, 8.0, params.PEEP)
	assert.Equal(t, 15.0, params.BreathsPerMinute)
}

func TestSchema(t *testing.T) {
	assert.Contains(t, Schema(), "#Profile")
}
