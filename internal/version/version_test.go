package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsFillUnsetFields(t *testing.T) {
	var info Info
	filled := info.Defaults()

	assert.Equal(t, "dev", filled.Version)
	assert.Equal(t, "unknown", filled.GitCommit)
	assert.Equal(t, "unknown", filled.BuildTime)
}

func TestDefaultsKeepInjectedValues(t *testing.T) {
	info := Info{
		Version:   "v1.2.3",
		GitCommit: "abc1234",
		BuildTime: "2026-08-01T00:00:00Z",
	}

	assert.Equal(t, info, info.Defaults())
}
