// Command zitarev runs the reverb over audio files or a live audio device.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/justyntemme/zitarev/internal/audiofile"
	"github.com/justyntemme/zitarev/internal/config"
	"github.com/justyntemme/zitarev/internal/host"
	"github.com/justyntemme/zitarev/pkg/dsp/gain"
	"github.com/justyntemme/zitarev/pkg/dsp/reverb/zita"
	"github.com/justyntemme/zitarev/pkg/framework/debug"
	"github.com/justyntemme/zitarev/pkg/framework/engine"
	"github.com/justyntemme/zitarev/pkg/framework/plugin"
	"github.com/klauspost/cpuid"
)

const usage = `usage: zitarev <command> [flags]

commands:
  render  process an audio file into a WAV file
  live    process the default audio device in real time
  params  print the parameter table and host CPU information
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(os.Args[2:])
	case "live":
		err = runLive(os.Args[2:])
	case "params":
		err = runParams(os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("zitarev failed", "command", os.Args[1], "err", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, installs the logger and builds a reverb with
// the configured parameter overrides applied.
func setup(configFilePath string) (*config.Config, *plugin.Reverb, func(), error) {
	cfg, err := config.Load(configFilePath, engine.ParamIDs[:])
	if err != nil {
		return nil, nil, nil, err
	}

	logFile, err := debug.ConfigureDefaultLogger(cfg.LogLevel, cfg.LogFile, slog.HandlerOptions{})
	if err != nil {
		return nil, nil, nil, err
	}

	opts := plugin.DefaultOptions()
	opts.OutputGain = gain.Compensation(cfg.OutputGain)
	opts.Crossover = cfg.Crossover

	reverb, err := plugin.New(zita.New(), opts)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, nil, nil, err
	}
	for _, id := range engine.ParamIDs {
		if v, ok := cfg.Params[id]; ok {
			reverb.SetParameter(id, v)
		}
	}

	cleanup := func() {
		reverb.Close()
		if logFile != nil {
			logFile.Close()
		}
	}
	return cfg, reverb, cleanup, nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	in := fs.String("in", "", "Input audio file (.wav or .mp3).")
	out := fs.String("out", "", "Output WAV file.")
	configFilePath := fs.String("config", "zitarev.yaml", "Set the file path to the config file.")
	blockSize := fs.Int("blocksize", 0, "Processing block size. Overrides the config.")
	tail := fs.Float64("tail", -1, "Seconds of tail after the input. Defaults to the plugin tail length.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		fs.Usage()
		return errors.New("render: -in and -out are required")
	}
	if !strings.EqualFold(filepath.Ext(*out), ".wav") {
		return fmt.Errorf("render: output must be a .wav file, got %q", *out)
	}

	cfg, reverb, cleanup, err := setup(*configFilePath)
	if err != nil {
		return err
	}
	defer cleanup()

	if *blockSize > 0 {
		cfg.BlockSize = *blockSize
	}
	tailDuration := time.Duration(reverb.Info().TailSeconds * float64(time.Second))
	if *tail >= 0 {
		tailDuration = time.Duration(*tail * float64(time.Second))
	}

	clip, err := audiofile.Read(*in)
	if err != nil {
		return err
	}
	slog.Info("loaded input",
		"file", *in,
		"sampleRate", clip.SampleRate,
		"channels", len(clip.Channels),
		"duration", clip.Duration(),
	)
	rate := int(cfg.SampleRate)
	if clip.SampleRate != rate {
		slog.Info("resampling input", "from", clip.SampleRate, "to", rate)
		clip = clip.Resample(rate)
	}

	if err := reverb.Prepare(float64(rate), cfg.BlockSize); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := host.Render(ctx, reverb, clip, host.RenderOptions{
		BlockSize: cfg.BlockSize,
		Tail:      tailDuration,
	})
	if err != nil {
		return err
	}
	if err := audiofile.Write(*out, res.Output, 24); err != nil {
		return err
	}

	slog.Info("render complete",
		"file", *out,
		"frames", res.Output.Frames(),
		"peakDb", res.Analysis.PeakDb,
		"rms", res.Analysis.RMS,
		"nonFinite", res.Analysis.NaNCount,
		"blocks", res.Profile.Blocks,
		"averageBlock", res.Profile.Average(),
		"maxBlock", res.Profile.Max,
		"load", res.Profile.Load,
	)
	for _, issue := range res.Analysis.Issues() {
		slog.Warn("output issue", "issue", issue)
	}
	return nil
}

func runLive(args []string) error {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	configFilePath := fs.String("config", "zitarev.yaml", "Set the file path to the config file.")
	duration := fs.Duration("duration", 0, "Stop after this long. Zero runs until interrupted.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, reverb, cleanup, err := setup(*configFilePath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := reverb.Prepare(cfg.SampleRate, cfg.BlockSize); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return host.Live(ctx, reverb, host.LiveOptions{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Duration:   *duration,
	})
}

func runParams(w io.Writer) error {
	info := plugin.DefaultInfo()
	fmt.Fprintf(w, "%s %s (tail %.0f s, programs %s)\n\n", info.Name, info.Version, info.TailSeconds, strings.Join(info.Programs, ", "))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMIN\tMAX\tDEFAULT\tUNIT")
	for _, p := range plugin.Layout() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name,
			p.FormatValue(p.Min), p.FormatValue(p.Max), p.FormatValue(p.DefaultValue),
			p.Unit,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nCPU: %s (%d physical cores, %d logical)\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores)
	return nil
}
