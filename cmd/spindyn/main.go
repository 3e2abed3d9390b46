package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/meisenbach/spindyn/internal/analysis"
	"github.com/meisenbach/spindyn/internal/config"
	"github.com/meisenbach/spindyn/internal/contraction"
	"github.com/meisenbach/spindyn/internal/langevin"
	"github.com/meisenbach/spindyn/internal/metrics"
	"github.com/meisenbach/spindyn/internal/sampler"
	"github.com/meisenbach/spindyn/internal/storage"
	"github.com/meisenbach/spindyn/internal/structfact"
)

var (
	configFile string
	dataDir    string
	saveRun    bool

	kt      float64
	damping float64
	dt      float64
	seed    int64

	qAxis      string
	qCount     int
	contractBy string
	alphaCh    int
	betaCh     int
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func main() {
	root := &cobra.Command{
		Use:   "spindyn",
		Short: "Classical spin dynamics: Langevin sampling and structure-factor reduction",
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML model definition")
	root.PersistentFlags().StringVar(&dataDir, "data", "runs", "directory for persisted runs")

	root.AddCommand(configCmd(), sampleCmd(), relaxCmd(), structfactCmd(), runsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage model definitions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default model definition",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "spindyn.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configFile)
}

func applyOverrides(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("kt") {
		cfg.Dynamics.KT = kt
	}
	if cmd.Flags().Changed("damping") {
		cfg.Dynamics.Damping = damping
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dynamics.Dt = dt
	}
	if cmd.Flags().Changed("seed") {
		cfg.Dynamics.Seed = seed
	}
}

func dynamicsFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&kt, "kt", config.DefaultKT, "temperature")
	cmd.Flags().Float64Var(&damping, "damping", config.DefaultDamping, "damping coefficient")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "integrator timestep")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
}

func sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Thermalize and collect decorrelated samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyOverrides(cfg, cmd)

			model, err := cfg.Build()
			if err != nil {
				return err
			}

			d := cfg.Dynamics
			if cfg.Sampling.Replicas > 1 {
				ens := sampler.NewEnsemble(model.Hamiltonian, d.Damping, d.KT, d.Dt,
					cfg.Sampling.DecorrelationSteps, cfg.Sampling.Replicas, d.Seed)
				results, err := ens.Run(context.Background(), model.Configuration,
					cfg.Sampling.ThermalizeSteps, cfg.Sampling.Samples)
				if err != nil {
					return err
				}
				for i, r := range results {
					mean, std := analysis.MeanStd(r.Energies)
					fmt.Printf("replica %d: energy %.6f +/- %.6f over %d samples\n", i, mean, std, r.Samples)
				}
				return nil
			}

			integ := langevin.New(model.Hamiltonian, d.Damping, d.KT, d.Dt, d.Seed)
			smp := sampler.New(integ, cfg.Sampling.DecorrelationSteps)
			smp.AddMetric(metrics.NewMagnetization())
			smp.AddMetric(metrics.NewEnergyVariance(model.Hamiltonian))

			model.Configuration.Randomize(randSource(d.Seed))
			start := time.Now()
			if err := smp.Thermalize(context.Background(), model.Configuration, cfg.Sampling.ThermalizeSteps); err != nil {
				return err
			}
			result, err := smp.Run(context.Background(), model.Configuration, cfg.Sampling.Samples)
			if err != nil {
				return err
			}
			printRunSummary(cfg, result, time.Since(start))

			if saveRun {
				store := storage.New(dataDir)
				if err := store.Init(); err != nil {
					return err
				}
				id, err := store.Save(storage.RunMetadata{
					Timestamp: time.Now(),
					Seed:      d.Seed,
					Dt:        d.Dt,
					Damping:   d.Damping,
					KT:        d.KT,
				}, result)
				if err != nil {
					return err
				}
				fmt.Printf("saved %s\n", id)
			}
			return nil
		},
	}
	dynamicsFlags(cmd)
	cmd.Flags().BoolVar(&saveRun, "save", false, "persist the run")
	return cmd
}

func relaxCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "relax",
		Short: "Damped zero-temperature relaxation toward a local energy minimum",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyOverrides(cfg, cmd)
			cfg.Dynamics.KT = 0

			model, err := cfg.Build()
			if err != nil {
				return err
			}
			model.Configuration.Randomize(randSource(cfg.Dynamics.Seed))

			d := cfg.Dynamics
			integ := langevin.New(model.Hamiltonian, d.Damping, 0, d.Dt, d.Seed)
			smp := sampler.New(integ, 1)
			e0 := model.Hamiltonian.Energy(model.Configuration)
			if err := smp.Thermalize(context.Background(), model.Configuration, steps); err != nil {
				return err
			}
			e1 := model.Hamiltonian.Energy(model.Configuration)
			n := float64(model.Lattice.NumSites())
			fmt.Printf("energy per site: %.6f -> %.6f after %d steps\n", e0/n, e1/n, steps)
			return nil
		},
	}
	dynamicsFlags(cmd)
	cmd.Flags().IntVar(&steps, "steps", 5000, "relaxation steps")
	return cmd
}

func structfactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structfact",
		Short: "Sample a trajectory and reduce its structure factor to intensities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyOverrides(cfg, cmd)

			model, err := cfg.Build()
			if err != nil {
				return err
			}

			d := cfg.Dynamics
			integ := langevin.New(model.Hamiltonian, d.Damping, d.KT, d.Dt, d.Seed)
			smp := sampler.New(integ, cfg.Sampling.DecorrelationSteps)
			collector := structfact.NewCollector(model.Lattice, model.Configuration.Dim())
			smp.AddObserver(collector)

			model.Configuration.Randomize(randSource(d.Seed))
			if err := smp.Thermalize(context.Background(), model.Configuration, cfg.Sampling.ThermalizeSteps); err != nil {
				return err
			}
			if _, err := smp.Run(context.Background(), model.Configuration, cfg.Sampling.Samples); err != nil {
				return err
			}

			qs, err := momentumPath(qAxis, qCount)
			if err != nil {
				return err
			}
			spec, err := collector.Compute(qs)
			if err != nil {
				return err
			}
			contract, err := buildContraction(spec, model.Configuration.Dim())
			if err != nil {
				return err
			}
			intensities := spec.Reduce(contract)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "q\tintegrated intensity")
			for qi, vals := range intensities {
				total := 0.0
				for _, v := range vals {
					total += v
				}
				fmt.Fprintf(w, "(%.3f %.3f %.3f)\t%.6f\n", qs[qi][0], qs[qi][1], qs[qi][2], total)
			}
			return w.Flush()
		},
	}
	dynamicsFlags(cmd)
	cmd.Flags().StringVar(&qAxis, "q-to", "0.5,0,0", "endpoint of the momentum path from the zone center, in r.l.u.")
	cmd.Flags().IntVar(&qCount, "q-count", 9, "number of momentum points along the path")
	cmd.Flags().StringVar(&contractBy, "contract", "depolarize", "contraction: trace, depolarize, or element")
	cmd.Flags().IntVar(&alphaCh, "alpha", 0, "first channel for element contraction")
	cmd.Flags().IntVar(&betaCh, "beta", 0, "second channel for element contraction")
	return cmd
}

func runsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List persisted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "id\tkt\tsamples\tmean energy")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%.3f\t%d\t%.6f\n", r.ID, r.KT, r.Samples, r.Metrics["energy"])
			}
			return w.Flush()
		},
	}
}

func randSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func buildContraction(spec *structfact.Spectrum, dim int) (*contraction.Contraction, error) {
	switch contractBy {
	case "trace":
		return contraction.NewTrace(spec.Pairs, dim)
	case "depolarize":
		return contraction.NewDepolarize(spec.Pairs)
	case "element":
		return contraction.NewElement(spec.Pairs, alphaCh, betaCh)
	default:
		return nil, fmt.Errorf("unknown contraction %q", contractBy)
	}
}

func momentumPath(endpoint string, count int) ([][3]float64, error) {
	parts := strings.Split(endpoint, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("momentum endpoint needs three components, got %q", endpoint)
	}
	var end [3]float64
	for k, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		end[k] = v
	}
	if count < 2 {
		count = 2
	}
	qs := make([][3]float64, count)
	for i := range qs {
		f := float64(i) / float64(count-1)
		qs[i] = [3]float64{end[0] * f, end[1] * f, end[2] * f}
	}
	return qs, nil
}

func printRunSummary(cfg *config.Config, result *sampler.Result, elapsed time.Duration) {
	mean, std := analysis.MeanStd(result.Energies)
	acf := analysis.Autocorrelation(result.Energies, 50)
	tau := analysis.IntegratedTime(acf)

	if len(result.Energies) >= 2 {
		fmt.Println(asciigraph.Plot(result.Energies, asciigraph.Height(10), asciigraph.Caption("energy trace")))
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("sampling summary") + "\n")
	fmt.Fprintf(&sb, "%s %.6f +/- %.6f\n", keyStyle.Render("energy"), mean, std)
	fmt.Fprintf(&sb, "%s %.6f\n", keyStyle.Render("magnetization"), result.Metrics["magnetization"])
	fmt.Fprintf(&sb, "%s %.2f samples\n", keyStyle.Render("autocorr time"), tau)
	fmt.Fprintf(&sb, "%s %d at kT=%.3f in %s", keyStyle.Render("samples"), result.Samples, cfg.Dynamics.KT, elapsed.Round(time.Millisecond))
	fmt.Println(boxStyle.Render(sb.String()))
}
