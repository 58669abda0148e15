// Command receipt runs a scenario with a fixed seed and prints a
// reproducibility receipt: the exact inputs plus a SHA-256 of the exported
// time series. A collaborator who runs the same command gets the same hash.
//
//	receipt --scenario inequality --seed 42 --steps 52
//	receipt --scenario-file my_scenario.yaml --steps 100 --out results/
//	receipt --compare --runs 50 --steps 50
package main

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/talgya/landlease/internal/engine"
	"github.com/talgya/landlease/internal/scenario"
	"github.com/talgya/landlease/internal/snapshot"
)

// receipt is everything a collaborator needs to recreate a run and check
// they got the same output.
type receipt struct {
	ScenarioID    string        `json:"scenario_id"`
	ScenarioTitle string        `json:"scenario_title"`
	Seed          int64         `json:"seed"`
	Steps         int           `json:"steps"`
	Params        engine.Params `json:"params"`
	GoVersion     string        `json:"go_version"`
	Platform      string        `json:"platform"`
	TimestampUTC  string        `json:"timestamp_utc"`
	ElapsedS      float64       `json:"elapsed_s"`
	OutputCSV     string        `json:"output_csv"`
	SHA256        string        `json:"sha256"`
	FinalRound    int           `json:"final_round"`
	FinalGini     float64       `json:"final_gini"`
	FinalHousing  float64       `json:"final_housing"`
	FinalPop      int           `json:"final_population"`
}

func main() {
	var (
		scenarioID   = flag.String("scenario", "balanced", "built-in scenario to run")
		scenarioFile = flag.String("scenario-file", "", "YAML scenario file (overrides --scenario)")
		seed         = flag.Int64("seed", 42, "random seed")
		steps        = flag.Int("steps", 52, "number of rounds")
		outDir       = flag.String("out", "results", "output directory")
		writeJSON    = flag.Bool("json", false, "also write the receipt as JSON")
		snapPath     = flag.String("snapshot", "", "also write a resumable snapshot to this path")
		compare      = flag.Bool("compare", false, "run every scenario --runs times and export mean +/- 95% CI series")
		runs         = flag.Int("runs", 50, "runs per scenario in --compare mode")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if *compare {
		if err := runComparison(*runs, *steps, *outDir); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	sc, err := resolveScenario(*scenarioID, *scenarioFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Printf("Running %s, seed=%d, %d steps ...\n", sc.Title, *seed, *steps)
	r, m, err := runOnce(sc, *seed, *steps, *outDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	printReceipt(r)

	if *writeJSON {
		jsonPath := filepath.Join(*outDir, fmt.Sprintf("receipt_%s_seed%d.json", sc.ID, *seed))
		data, _ := json.MarshalIndent(r, "", "  ")
		if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Printf("  Receipt JSON: %s\n", jsonPath)
	}

	if *snapPath != "" {
		if err := snapshot.Save(*snapPath, snapshot.Capture(m)); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Printf("  Snapshot: %s\n", *snapPath)
	}
}

// resolveScenario picks the parameter bundle: a YAML file when given, a
// built-in preset otherwise.
func resolveScenario(id, file string) (scenario.Scenario, error) {
	if file != "" {
		return scenario.LoadFile(file)
	}
	return scenario.Lookup(id)
}

func runOnce(sc scenario.Scenario, seed int64, steps int, outDir string) (receipt, *engine.Model, error) {
	m, err := engine.NewModel(sc.Params.WithSeed(seed))
	if err != nil {
		return receipt{}, nil, err
	}

	t0 := time.Now()
	m.StepN(steps)
	elapsed := time.Since(t0)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return receipt{}, nil, err
	}
	ts := time.Now().UTC().Format("20060102T150405")
	csvPath := filepath.Join(outDir, fmt.Sprintf("%s_seed%d_r%d_%s.csv", sc.ID, seed, steps, ts))

	h := m.HistorySeries()
	if err := writeCSV(csvPath, h.CSVRecords(6)); err != nil {
		return receipt{}, nil, err
	}
	hash, err := sha256File(csvPath)
	if err != nil {
		return receipt{}, nil, err
	}

	last := h.Len() - 1
	return receipt{
		ScenarioID:    sc.ID,
		ScenarioTitle: sc.Title,
		Seed:          seed,
		Steps:         steps,
		Params:        m.Params,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS,
		TimestampUTC:  time.Now().UTC().Format(time.RFC3339),
		ElapsedS:      math.Round(elapsed.Seconds()*1000) / 1000,
		OutputCSV:     csvPath,
		SHA256:        hash,
		FinalRound:    h.Round[last],
		FinalGini:     math.Round(h.Gini[last]*10000) / 10000,
		FinalHousing:  math.Round(h.HousingRate[last]*10000) / 10000,
		FinalPop:      h.Population[last],
	}, m, nil
}

func printReceipt(r receipt) {
	line := "============================================================"
	fmt.Println()
	fmt.Println(line)
	fmt.Println("  REPRODUCIBILITY RECEIPT")
	fmt.Println(line)
	fmt.Printf("  Scenario : %s\n", r.ScenarioTitle)
	fmt.Printf("  Seed     : %d\n", r.Seed)
	fmt.Printf("  Steps    : %d\n", r.Steps)
	fmt.Printf("  Go       : %s  (%s)\n", r.GoVersion, r.Platform)
	fmt.Printf("  Run time : %gs\n", r.ElapsedS)
	fmt.Println()
	fmt.Println("  Parameters:")
	fmt.Printf("    %-25s %d\n", "immigration_rate", r.Params.ImmigrationRate)
	fmt.Printf("    %-25s %d\n", "min_lease_length", r.Params.MinLeaseLength)
	fmt.Printf("    %-25s %d\n", "max_lease_length", r.Params.MaxLeaseLength)
	fmt.Printf("    %-25s %d\n", "max_wealth", r.Params.MaxWealth)
	fmt.Printf("    %-25s %t\n", "vacancy_decay", r.Params.VacancyDecay)
	fmt.Printf("    %-25s %g\n", "environment_weight", r.Params.EnvironmentWeight)
	fmt.Printf("    %-25s %g\n", "community_weight", r.Params.CommunityWeight)
	fmt.Println()
	fmt.Printf("  Final state (round %d):\n", r.FinalRound)
	fmt.Printf("    Gini coefficient   %.4f\n", r.FinalGini)
	fmt.Printf("    Housing rate       %.1f%%\n", r.FinalHousing*100)
	fmt.Printf("    Population         %d\n", r.FinalPop)
	fmt.Println()
	fmt.Printf("  Output CSV : %s\n", r.OutputCSV)
	fmt.Printf("  SHA-256    : %s\n", r.SHA256)
	fmt.Println(line)
	fmt.Println()
	fmt.Println("  To reproduce this exact run:")
	fmt.Printf("    receipt --scenario %s --seed %d --steps %d\n", r.ScenarioID, r.Seed, r.Steps)
	fmt.Println()
}

// runComparison runs every built-in scenario `runs` times over the seed
// ladder seed=i*31337 and writes per-round mean and 95% CI series for the
// Gini coefficient and the housing rate, one CSV per metric.
func runComparison(runs, steps int, outDir string) error {
	if runs < 2 {
		return fmt.Errorf("--runs must be >= 2, got %d", runs)
	}

	fmt.Printf("Scenario comparison: %d runs x %d steps x %d scenarios = %d simulations\n",
		runs, steps, len(scenario.All), runs*len(scenario.All))

	gini := make(map[string][][]float64, len(scenario.All))
	housing := make(map[string][][]float64, len(scenario.All))
	t0 := time.Now()

	for i, sc := range scenario.All {
		fmt.Printf("  [%d/%d] %s ...", i+1, len(scenario.All), sc.Title)
		g := make([][]float64, runs)
		hr := make([][]float64, runs)
		for r := 0; r < runs; r++ {
			m, err := engine.NewModel(sc.Params.WithSeed(int64(r) * 31337))
			if err != nil {
				return err
			}
			m.StepN(steps)
			h := m.HistorySeries()
			g[r] = h.Gini
			hr[r] = h.HousingRate
		}
		gini[sc.ID] = g
		housing[sc.ID] = hr

		mean, sd := finalStats(g)
		fmt.Printf(" Gini R%d: %.3f +/- %.3f\n", steps, mean, sd)
	}
	fmt.Printf("  Done in %.1fs\n", time.Since(t0).Seconds())

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, out := range []struct {
		metric string
		series map[string][][]float64
	}{
		{"gini", gini},
		{"housing_rate", housing},
	} {
		path := filepath.Join(outDir, "compare_"+out.metric+".csv")
		if err := writeCSV(path, bandRecords(out.series, steps, runs)); err != nil {
			return err
		}
		fmt.Printf("  %s series: %s\n", out.metric, path)
	}
	return nil
}

// finalStats returns mean and standard deviation of the last value across
// runs.
func finalStats(matrix [][]float64) (mean, sd float64) {
	finals := make([]float64, 0, len(matrix))
	for _, series := range matrix {
		if len(series) > 0 {
			finals = append(finals, series[len(series)-1])
		}
	}
	return meanStd(finals)
}

func meanStd(vals []float64) (mean, sd float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		sd += (v - mean) * (v - mean)
	}
	sd = math.Sqrt(sd / float64(len(vals)))
	return mean, sd
}

// bandRecords pivots per-run series into CSV rows: one row per round with
// mean and 95% CI columns per scenario, in preset order.
func bandRecords(series map[string][][]float64, steps, runs int) [][]string {
	header := []string{"round"}
	for _, sc := range scenario.All {
		header = append(header, sc.ID+"_mean", sc.ID+"_ci95")
	}
	records := [][]string{header}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for round := 0; round < steps; round++ {
		row := []string{strconv.Itoa(round + 1)}
		for _, sc := range scenario.All {
			vals := make([]float64, 0, runs)
			for _, run := range series[sc.ID] {
				if round < len(run) {
					vals = append(vals, run[round])
				}
			}
			mean, sd := meanStd(vals)
			ci := 1.96 * sd / math.Sqrt(float64(len(vals)))
			row = append(row, f(mean), f(ci))
		}
		records = append(records, row)
	}
	return records
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sha256File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
