package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/go-paludis/pkg/repository"
	"github.com/bdwyertech/go-paludis/pkg/resolver"
)

// LoadEnvironment loads the configured repositories
func LoadEnvironment(ctx context.Context) (*repository.Environment, error) {
	if len(cfg.Repositories) == 0 {
		return nil, fmt.Errorf("no repositories configured. Use --repository or set repositories in the config file")
	}

	log.Debugf("Loading %d repositories", len(cfg.Repositories))
	env, err := repository.LoadEnvironment(ctx, cfg.Repositories, cfg.GetConcurrency())
	if err != nil {
		return nil, fmt.Errorf("failed to load repositories: %w", err)
	}
	return env, nil
}

// isTerminal reports whether f is attached to a terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressNotifier shows a spinner on stderr while the resolver works. It
// returns nil when stderr is not a terminal.
type progressNotifier struct {
	bar *progressbar.ProgressBar
}

func newProgressNotifier() *progressNotifier {
	if !isTerminal(os.Stderr) {
		return nil
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(resolver.StageDeciding),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &progressNotifier{bar: bar}
}

func (p *progressNotifier) Notify(e resolver.Event) {
	switch ev := e.(type) {
	case resolver.StepEvent:
		_ = p.bar.Add(1)
	case resolver.StageEvent:
		p.bar.Describe(ev.Stage)
	}
}

func (p *progressNotifier) Finish() {
	_ = p.bar.Finish()
}
