package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetVersion(t *testing.T) {
	t.Helper()
	v, r, d := Version, Revision, BuildDate
	t.Cleanup(func() {
		Version, Revision, BuildDate = v, r, d
	})
	Version, Revision, BuildDate = devVersion, "HEAD", ""
}

func TestVersionStrings(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, Revision)

	assert.Contains(t, Short(), Version)
	assert.Contains(t, Detailed(), Revision)
	assert.Contains(t, Detailed(), "/")
	assert.True(t, strings.HasPrefix(UserAgent(), AppName+"/"+Version))
}

func TestApplyBuildInfo_FillsDefaults(t *testing.T) {
	resetVersion(t)

	applyBuildInfo("v1.4.2", map[string]string{
		"vcs.revision": "abcdef1234567890",
		"vcs.modified": "true",
		"vcs.time":     "2025-12-12T01:00:00Z",
	})

	assert.Equal(t, "1.4.2", Version)
	assert.Equal(t, "abcdef123456-dirty", Revision)
	assert.Equal(t, "2025-12-12T01:00:00Z", BuildDate)
	assert.Contains(t, Detailed(), "2025-12-12T01:00:00Z")
}

func TestApplyBuildInfo_KeepsLdflags(t *testing.T) {
	resetVersion(t)
	Version = "2.0.0"
	Revision = "cafe"

	applyBuildInfo("(devel)", map[string]string{"vcs.revision": "beef"})

	assert.Equal(t, "2.0.0", Version)
	assert.Equal(t, "cafe", Revision)
}
