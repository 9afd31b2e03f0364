package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrNotLaunchable is returned for entries without a launch command.
var ErrNotLaunchable = errors.New("app has no launch command")

// Launcher starts an app.
type Launcher interface {
	Launch(ctx context.Context, e Entry) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, e Entry) error

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, e Entry) error { return f(ctx, e) }

// ExecLauncher starts the entry's command, or Template with "{package}"
// substituted when the entry has none, and does not wait for it to exit.
type ExecLauncher struct {
	Template []string
	Logger   *zap.Logger
}

// Launch starts the process.
func (l ExecLauncher) Launch(ctx context.Context, e Entry) error {
	argv := e.Exec
	if len(argv) == 0 && len(l.Template) > 0 {
		argv = make([]string, len(l.Template))
		for i, a := range l.Template {
			argv[i] = strings.ReplaceAll(a, "{package}", e.Package)
		}
	}
	if len(argv) == 0 {
		return fmt.Errorf("%s: %w", e.Package, ErrNotLaunchable)
	}

	// The app outlives the request that launched it.
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.Package, err)
	}

	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("launched app exited", zap.String("package", e.Package), zap.Error(err))
		}
	}()
	return nil
}
