// Command fitrates fits reaction rate constants with CMA-ES so that pooled
// time-weighted species means match target values.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/heatshock/config"
	"github.com/pthm-cable/heatshock/logging"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

type options struct {
	configPath string
	params     []string
	targets    []string
	seeds      int
	maxEvals   int
	population int
	stepSize   float64
	outputDir  string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "fitrates",
		Short: "Fit reaction rates to target species means with CMA-ES",
		Example: `  fitrates -c models/pab1.yaml -o fit \
    --param "chaperone translation:10:500" --param disaggregation:0.0001:0.01 \
    --target Pab1=60 --target Chaperone=80`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "Base model YAML file (empty = built-in defaults)")
	f.StringArrayVar(&o.params, "param", nil, "Rate to fit as reaction:min:max (repeatable)")
	f.StringArrayVar(&o.targets, "target", nil, "Target mean as species=value (repeatable)")
	f.IntVar(&o.seeds, "seeds", 4, "Number of seeds per evaluation")
	f.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	f.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = auto)")
	f.Float64Var(&o.stepSize, "step-size", 0.3, "Initial CMA-ES step size in normalized units")
	f.StringVarP(&o.outputDir, "output", "o", "", "Output directory for results (required)")
	f.StringVar(&o.logLevel, "log-level", "warn", "Log level")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("param")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func run(out io.Writer, o options) error {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	logger, err := logging.New(level, "text", os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if err := baseCfg.Validate(); err != nil {
		return err
	}

	specs := make([]ParamSpec, len(o.params))
	for i, s := range o.params {
		if specs[i], err = ParseParamSpec(s); err != nil {
			return err
		}
	}
	params, err := NewParamVector(baseCfg, specs)
	if err != nil {
		return err
	}
	targets := make([]Target, len(o.targets))
	for i, s := range o.targets {
		if targets[i], err = ParseTarget(s); err != nil {
			return err
		}
	}

	evalSeeds := make([]uint64, o.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint64(i*1000) + baseCfg.Simulation.Seed
	}
	evaluator := NewFitnessEvaluator(params, targets, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	popSize := o.population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: o.stepSize,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: o.maxEvals,
		Concurrent:      0,
	}

	logFile, err := os.Create(filepath.Join(o.outputDir, "fit_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	logWriter := gocsv.DefaultCSVWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	for _, tg := range targets {
		header = append(header, "mean_"+tg.Species)
	}
	if err := logWriter.Write(header); err != nil {
		return fmt.Errorf("writing log header: %w", err)
	}

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			row := []string{strconv.Itoa(evalCount), strconv.FormatFloat(fitness, 'g', 8, 64)}
			for _, v := range clamped {
				row = append(row, strconv.FormatFloat(v, 'g', 8, 64))
			}
			for _, m := range evaluator.LastMeans() {
				row = append(row, strconv.FormatFloat(m, 'g', 8, 64))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(o.maxEvals-evalCount) * avgPerEval
			fmt.Fprintf(out, "Eval %d/%d: fitness=%.4g (best=%.4g) | elapsed: %s, ETA: %s\n",
				evalCount, o.maxEvals, fitness, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	fmt.Fprintf(out, "Starting CMA-ES with %d parameters, population=%d, max_evals=%d, seeds=%d\n",
		dim, popSize, o.maxEvals, o.seeds)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil {
		if result == nil {
			return fmt.Errorf("optimization produced no evaluations: %w", err)
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if err := logWriter.Error(); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}

	fmt.Fprintf(out, "\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Fprintf(out, "Best fitness: %.6g\n", bestFitness)
	fmt.Fprintln(out, "\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Fprintf(out, "  %s: %.6g\n", spec.Name, bestParams[i])
	}
	for i, tg := range targets {
		if means := evaluator.BestMeans(); i < len(means) {
			fmt.Fprintf(out, "  mean %s: %.4g (target %.4g)\n", tg.Species, means[i], tg.Value)
		}
	}

	bestCfg, err := baseCfg.Clone()
	if err != nil {
		return err
	}
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		return err
	}
	configOutPath := filepath.Join(o.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Fprintf(out, "\nBest config saved to: %s\n", configOutPath)
	return nil
}
