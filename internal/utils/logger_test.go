package utils

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestInitLevel(t *testing.T) {
	Init("debug")
	assert.Equal(t, log.DebugLevel, Logger().GetLevel())

	Init("warn")
	assert.Equal(t, log.WarnLevel, Logger().GetLevel())

	// 无法解析时保持默认 info
	Init("loud")
	assert.Equal(t, log.InfoLevel, Logger().GetLevel())
}
