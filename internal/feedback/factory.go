package feedback

import (
	"fmt"
	"time"

	"github.com/shiwa/quadctl/internal/config"
)

// NewFromConfig создаёт Source из конфига. hub нужен для kind: link.
func NewFromConfig(c config.FeedbackSource, hub AttitudeReader, timeout time.Duration) (Source, error) {
	if c.Disable {
		return nil, fmt.Errorf("source disabled")
	}
	switch c.Kind {
	case "link", "":
		if hub == nil {
			return nil, fmt.Errorf("link: serial link not open")
		}
		return NewLink(hub, timeout), nil
	case "replay":
		if c.File == "" {
			return nil, fmt.Errorf("replay: file required")
		}
		s, err := NewReplay(c.File, c.Loop)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown feedback kind: %s", c.Kind)
	}
}
