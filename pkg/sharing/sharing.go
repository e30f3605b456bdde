package sharing

import (
	"context"

	"github.com/joyridegames/joyride/pkg/log"
)

// Sharer hands text to the platform share sheet. Fire and forget; the
// game never consumes a result.
type Sharer interface {
	Share(ctx context.Context, text string) error
}

// LogSharer logs shared text. It stands in for the platform share sheet
// in local builds and tests.
type LogSharer struct {
}

func NewLogSharer() *LogSharer {
	return &LogSharer{}
}

func (s *LogSharer) Share(ctx context.Context, text string) error {
	log.Info("Sharing: %s", text)
	return nil
}
