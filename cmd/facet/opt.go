package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"facet/internal/driver"
	"facet/internal/mir"
	"facet/internal/observ"
	"facet/internal/project"
	"facet/internal/trace"
)

var optCmd = &cobra.Command{
	Use:   "opt [flags] <snapshot>",
	Short: "Optimize a module snapshot",
	Long:  "Optimize a MIR module snapshot, using facet.toml for defaults when present.",
	Args:  cobra.ExactArgs(1),
	RunE:  optExecution,
}

func init() {
	optCmd.Flags().IntP("opt-level", "O", -1, "optimization level (overrides facet.toml)")
	optCmd.Flags().Int("jobs", 0, "number of concurrent workers (0 = all CPUs)")
	optCmd.Flags().StringP("output", "o", "", "output snapshot path (default: rewrite input)")
	optCmd.Flags().Bool("emit-mir", false, "print the optimized module to stdout")
	optCmd.Flags().String("trace", "", "trace level (off|phase|func|debug)")
	optCmd.Flags().String("trace-output", "-", "trace output path (- for stderr)")
}

func optExecution(cmd *cobra.Command, args []string) error {
	optLevel, err := cmd.Flags().GetInt("opt-level")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	emitMIR, err := cmd.Flags().GetBool("emit-mir")
	if err != nil {
		return err
	}
	traceValue, err := cmd.Flags().GetString("trace")
	if err != nil {
		return err
	}
	traceOutput, err := cmd.Flags().GetString("trace-output")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	// Manifest settings fill in whatever the flags leave unset.
	manifest, err := loadManifest(".")
	if err != nil {
		return err
	}
	if optLevel < 0 {
		optLevel = manifest.Build.OptLevel
	}
	if jobs <= 0 {
		jobs = manifest.Build.Jobs
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tracer, err := buildTracer(manifest, traceValue, traceOutput)
	if err != nil {
		return err
	}
	defer func() {
		_ = tracer.Close() //nolint:errcheck
	}()

	input := args[0]
	m, typesIn, err := driver.ReadSnapshot(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	timer := observ.NewTimer()
	opts := driver.Options{
		OptLevel: optLevel,
		Jobs:     jobs,
		Timer:    timer,
		Tracer:   tracer,
	}
	if err := driver.OptimizeModule(cmd.Context(), m, typesIn, opts); err != nil {
		return err
	}

	if output == "" {
		output = input
	}
	if err := driver.WriteSnapshot(output, m, typesIn); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	if emitMIR {
		if err := mir.DumpModule(cmd.OutOrStdout(), m, typesIn); err != nil {
			return err
		}
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "optimized %d funcs at O%d -> %s\n", len(m.Funcs), optLevel, output)
	}
	return nil
}

// loadManifest finds and parses facet.toml, returning defaults when no
// project root exists.
func loadManifest(startDir string) (*project.Manifest, error) {
	path, ok, err := project.FindFacetToml(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		m := &project.Manifest{}
		m.Build.OptLevel = project.DefaultOptLevel
		return m, nil
	}
	return project.LoadManifest(path)
}

// buildTracer resolves the trace configuration, flags over manifest.
func buildTracer(manifest *project.Manifest, levelFlag, outputFlag string) (trace.Tracer, error) {
	level, err := manifest.TraceLevel()
	if err != nil {
		return nil, err
	}
	if levelFlag != "" {
		level, err = trace.ParseLevel(levelFlag)
		if err != nil {
			return nil, err
		}
	}
	outputPath := manifest.Trace.Output
	if outputFlag != "" && outputFlag != "-" {
		outputPath = outputFlag
	}
	if level == trace.LevelOff {
		return trace.Nop, nil
	}
	if outputPath == "" || outputPath == "-" {
		return trace.NewStreamTracer(os.Stderr, level), nil
	}
	return trace.New(trace.Config{Level: level, OutputPath: outputPath})
}
