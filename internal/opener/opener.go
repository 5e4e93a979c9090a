package opener

import (
	"context"
	"fmt"
	log "log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// Runner starts a command. Start-only commands (launching an app) must not
// wait for the child to exit.
type Runner interface {
	Start(ctx context.Context, name string, args ...string) error
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Start(_ context.Context, name string, args ...string) error {
	// Not tied to ctx: the launched program outlives the request.
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// System opens apps and URLs through the host platform's tooling.
type System struct {
	goos     string
	run      Runner
	lookPath func(string) (string, error)
	dataDirs func() []string
}

func NewSystem() *System {
	return &System{
		goos:     runtime.GOOS,
		run:      execRunner{},
		lookPath: exec.LookPath,
		dataDirs: xdgDataDirs,
	}
}

// OpenApp launches desktop applications only. Plain executables on PATH
// are not considered: a misheard name must not start a command line tool.
func (s *System) OpenApp(ctx context.Context, name string) bool {
	var err error

	switch s.goos {
	case "darwin":
		// open -a fails when no application bundle has that name.
		err = s.run.Run(ctx, "open", "-a", name)
	case "windows":
		var path string
		if path, err = s.lookPath(name + ".exe"); err == nil {
			err = s.run.Start(ctx, path)
		}
	default:
		e, ok := findDesktopApp(s.dataDirs(), name)
		if !ok {
			log.Debug("Not a desktop application", "name", name)
			return false
		}
		err = s.run.Start(ctx, "gtk-launch", e.ID)
	}

	if err != nil {
		log.Debug("Failed to launch application", "name", name, "err", err)
		return false
	}

	log.Info("Launched application", "name", name)
	return true
}

func (s *System) OpenURL(ctx context.Context, url string) error {
	var (
		name string
		args []string
	)

	switch s.goos {
	case "darwin":
		name, args = "open", []string{url}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		name, args = "xdg-open", []string{url}
	}

	if err := s.run.Start(ctx, name, args...); err != nil {
		return fmt.Errorf("%s %s: %w", name, url, err)
	}

	log.Info("Opened url", "url", url)
	return nil
}

func (s *System) CloseApp(ctx context.Context, name string) bool {
	var err error

	switch s.goos {
	case "windows":
		err = s.run.Run(ctx, "taskkill", "/f", "/im", name)
	default:
		if strings.HasSuffix(name, ".exe") {
			return false
		}
		err = s.run.Run(ctx, "pkill", "-x", name)
	}

	if err != nil {
		log.Debug("Close failed", "name", name, "err", err)
		return false
	}

	log.Info("Closed application", "name", name)
	return true
}
