package render

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	pkgerrors "siostam-backend/pkg/errors"
)

// renderTimeout bounds one graphviz run
const renderTimeout = 30 * time.Second

// layoutEngine is the graphviz binary used for layout
const layoutEngine = "fdp"

// Graphviz renders DOT documents to SVG through the local graphviz
// installation.
type Graphviz struct {
	logger *zap.Logger
}

// NewGraphviz verifies the layout engine is installed and returns the
// renderer. A missing graphviz is a startup error, not a per-render
// surprise.
func NewGraphviz(logger *zap.Logger) (*Graphviz, error) {
	if _, err := exec.LookPath(layoutEngine); err != nil {
		return nil, pkgerrors.NewUnavailableError("graphviz").WithCause(err)
	}
	return &Graphviz{logger: logger}, nil
}

// Render runs the layout engine with the document on stdin and
// returns the SVG from its stdout.
func (g *Graphviz) Render(ctx context.Context, dot string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, layoutEngine, "-Tsvg")
	cmd.Stdin = strings.NewReader(dot)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, pkgerrors.NewTimeoutError("svg render")
		}
		return nil, pkgerrors.NewRenderError("graphviz failed", err).WithDetails(map[string]interface{}{
			"stderr": strings.TrimSpace(stderr.String()),
		})
	}

	g.logger.Debug("Rendered svg",
		zap.Int("dotBytes", len(dot)),
		zap.Int("svgBytes", stdout.Len()),
		zap.Duration("took", time.Since(started)),
	)
	return stdout.Bytes(), nil
}
