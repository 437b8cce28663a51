package scene

import (
	"context"
	"fmt"
	"time"

	"endless-runner/internal/game"
)

// Template is a named headless visual.
type Template struct {
	kind game.Kind
	Name string
}

// Kind implements game.Template.
func (t Template) Kind() game.Kind { return t.kind }

// StaticAssets serves templates from memory. A Delay simulates slow
// loading; a kind listed in Missing fails to load.
type StaticAssets struct {
	Delay   time.Duration
	Missing map[game.Kind]bool
}

// Template returns the template for a kind, honouring ctx while delayed.
func (a StaticAssets) Template(ctx context.Context, kind game.Kind) (game.Template, error) {
	if a.Delay > 0 {
		timer := time.NewTimer(a.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if a.Missing[kind] {
		return nil, fmt.Errorf("template %s not found", kind)
	}
	return Template{kind: kind, Name: kind.String()}, nil
}
