package overlay

import (
	"time"

	"github.com/sirupsen/logrus"
)

// debugStats holds per-frame timing and upload metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	emitTime     time.Duration
	submitTime   time.Duration
	commandCount int
	uploadCount  int
	textureCount int
}

// debugLog writes timing and texture stats at debug level.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	logger().WithFields(logrus.Fields{
		"emit":     stats.emitTime,
		"submit":   stats.submitTime,
		"total":    stats.emitTime + stats.submitTime,
		"commands": stats.commandCount,
		"uploads":  stats.uploadCount,
		"textures": stats.textureCount,
	}).Debug("frame")
}
