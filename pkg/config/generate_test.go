package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateConfigContent(t *testing.T) {
	content := GenerateConfigContent()

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "[") {
			continue
		}
		assert.True(t, strings.HasPrefix(trimmed, "#"), "line not commented: %q", line)
	}
	assert.Contains(t, content, "# compression = \"zstd\"")
	assert.Contains(t, content, "[archive]")
}

func TestCommentOutConfigValues(t *testing.T) {
	in := "# header\n\n[log]\nverbosity = 1\n"
	assert.Equal(t, "# header\n\n[log]\n# verbosity = 1\n", commentOutConfigValues(in))
}
