package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/liamg/portprobe/scan"
	"github.com/liamg/portprobe/version"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var debug bool
var timeoutMS int = 1000
var parallelism int = scan.DefaultConcurrency
var portSelection string = scan.DefaultPortRange.String()
var proxyURL string
var jsonOutput bool
var showAll bool
var noProgress bool
var versionRequested bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&versionRequested, "version", "", versionRequested, "Output version information and exit")
	rootCmd.PersistentFlags().BoolVarP(&debug, "verbose", "v", debug, "Enable verbose logging")
	rootCmd.PersistentFlags().IntVarP(&timeoutMS, "timeout-ms", "t", timeoutMS, "Per-port connect timeout in MS")
	rootCmd.PersistentFlags().IntVarP(&parallelism, "workers", "w", parallelism, "Parallel routines to scan on")
	rootCmd.PersistentFlags().StringVarP(&portSelection, "ports", "p", portSelection, "Port or inclusive port range to scan e.g. 80 or 1-1024")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "x", proxyURL, "Send probes through a proxy e.g. socks5://127.0.0.1:1080")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", jsonOutput, "Write the report as JSON")
	rootCmd.PersistentFlags().BoolVarP(&showAll, "all", "a", showAll, "List every probed port, not only open ones")
	rootCmd.PersistentFlags().BoolVarP(&noProgress, "no-progress", "", noProgress, "Disable the progress bar")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: ExitUsage, err: err}
	})
}

var rootCmd = &cobra.Command{
	Use:           "portprobe [flags] <target>",
	Short:         "portprobe is a TCP port scanner",
	Long:          `A TCP connect scanner for finding which ports on a host accept connections.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if versionRequested {
			v := version.Version
			if v == "" {
				v = "development version"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "portprobe %s\n", v)
			return nil
		}

		if debug {
			log.SetLevel(log.DebugLevel)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !isQuiet(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// settings are the validated command line options for a single scan.
type settings struct {
	target  string
	ports   scan.PortRange
	timeout time.Duration
	workers int
	dialer  scan.Dialer
}

// parseSettings validates every flag and the target before anything touches the network.
func parseSettings(args []string) (*settings, error) {

	if len(args) == 0 {
		return nil, usageError("Please specify a target")
	}
	if len(args) > 1 {
		return nil, usageError("Please specify a single target, got %d", len(args))
	}

	target := strings.TrimSpace(args[0])
	if target == "" {
		return nil, usageError("Please specify a target")
	}

	ports, err := scan.ParsePortRange(portSelection)
	if err != nil {
		return nil, &exitError{code: ExitUsage, err: err}
	}

	if timeoutMS <= 0 {
		return nil, usageError("Invalid timeout: %dms, must be greater than zero", timeoutMS)
	}

	if parallelism <= 0 {
		return nil, usageError("Invalid worker count: %d, must be at least 1", parallelism)
	}

	s := &settings{
		target:  target,
		ports:   ports,
		timeout: time.Millisecond * time.Duration(timeoutMS),
		workers: parallelism,
	}

	if proxyURL != "" {
		d, err := scan.NewProxyDialer(proxyURL)
		if err != nil {
			return nil, &exitError{code: ExitUsage, err: err}
		}
		s.dialer = d
	}

	return s, nil
}

func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {

	s, err := parseSettings(args)
	if err != nil {
		return err
	}

	log.Debugf("Resolving %s...", s.target)
	target, err := scan.Resolve(ctx, s.target)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(stdout, "\nExiting scan.")
			return &exitError{code: ExitCancelled, err: fmt.Errorf("%w: %w", scan.ErrCancelled, ctx.Err()), quiet: true}
		}
		if scan.IsResolutionError(err) {
			return &exitError{code: ExitResolution, err: fmt.Errorf("Hostname could not be resolved: %w", err)}
		}
		return err
	}

	if !jsonOutput {
		printHeader(stdout, target, s.ports, time.Now())
	}

	options := []scan.Option{scan.WithDialer(s.dialer)}

	var bar *progressbar.ProgressBar
	if showProgress(stderr) {
		bar = newProgressBar(stderr, s.ports.Count())
		options = append(options, scan.WithProgress(func(result scan.ProbeResult) {
			_ = bar.Add(1)
		}))
	}

	scanner := scan.NewConnectScanner(s.timeout, s.workers, options...)

	log.Debugf("Scanning %d ports...", s.ports.Count())
	report, err := scanner.Scan(ctx, target, s.ports)

	if bar != nil {
		if err != nil {
			_ = bar.Clear()
		} else {
			_ = bar.Finish()
		}
	}

	if err != nil && !errors.Is(err, scan.ErrCancelled) {
		return err
	}

	if errors.Is(err, scan.ErrCancelled) && !jsonOutput {
		fmt.Fprintln(stdout, "\nExiting scan.")
	}

	if jsonOutput {
		if werr := writeJSON(stdout, report); werr != nil {
			return werr
		}
	} else {
		printReport(stdout, report, showAll)
	}

	if err != nil {
		return &exitError{code: ExitCancelled, err: err, quiet: true}
	}
	return nil
}

func showProgress(w io.Writer) bool {
	if noProgress || jsonOutput {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetDescription("[cyan]Scanning[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
