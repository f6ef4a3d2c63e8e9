package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

const progressPollInterval = 100 * time.Millisecond

type resolveOptions struct {
	limit   int
	refresh bool
	output  string
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	ro := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve <artist-id>",
		Short: "Resolves and prints an artist's aggregate audio features",
		Long:  `Serves the cached profile when it is fresh, otherwise resolves a new one and stores it. Use --refresh to always resolve.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, ro, args[0])
		},
	}

	cmd.Flags().IntVarP(&ro.limit, "limit", "n", 0, "number of top tracks to analyze, 1-10 (default from config)")
	cmd.Flags().BoolVar(&ro.refresh, "refresh", false, "ignore the cached profile")
	cmd.Flags().StringVarP(&ro.output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func runResolve(cmd *cobra.Command, opts *rootOptions, ro *resolveOptions, artistID string) error {
	if !domain.ValidID(artistID) {
		return fmt.Errorf("invalid artist id %q", artistID)
	}
	render, ok := renderers[ro.output]
	if !ok {
		return fmt.Errorf("unknown output format %q", ro.output)
	}

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	stop := watchProgress(ctx, a.tracker, artistID, barWriter(cmd))
	profile, status, err := a.profiles.Profile(ctx, artistID, ro.limit, ro.refresh)
	stop()
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), newReport(profile, status))
}

func barWriter(cmd *cobra.Command) io.Writer {
	if w := cmd.ErrOrStderr(); w != os.Stderr {
		return w
	}
	return ansi.NewAnsiStderr()
}

// watchProgress polls the tracker and mirrors the artist's record onto a
// progress bar until the returned stop function is called.
func watchProgress(ctx context.Context, tracker ports.ProgressTracker, artistID string, w io.Writer) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var (
		wg  sync.WaitGroup
		bar *progressbar.ProgressBar
	)
	update := func() {
		p := tracker.Get(artistID)
		if p.Total == 0 {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetTheme(progressbar.ThemeASCII),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Analyzing tracks...[reset]"),
			)
		}
		if p.CurrentTrackName != "" {
			bar.Describe(fmt.Sprintf("[cyan]%s[reset]", p.CurrentTrackName))
		}
		_ = bar.Set(p.Position)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
		update()
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(w)
		}
	}
}
