// Command benchmark measures end-to-end chain-solving latency against a
// running quizd instance: it posts each seed URL several times and reports
// per-seed latency and correctness rates.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "quizd API base URL")
	email    = flag.String("email", "", "registered operator email")
	secret   = flag.String("secret", "", "shared secret for the quiz endpoint")
	seedFile = flag.String("seeds", "", "file with one seed quiz URL per line (required)")
	runs     = flag.Int("runs", 3, "number of runs per seed URL for averaging")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// --- Request / Response types (mirrors models package) ---

type solveRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

type solveResponse struct {
	Correct bool    `json:"correct"`
	URL     *string `json:"url"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Benchmark result types ---

type runResult struct {
	Run      int    `json:"run"`
	TotalMs  int64  `json:"total_ms"`
	Correct  bool   `json:"correct"`
	FinalURL string `json:"final_url,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type seedAverages struct {
	TotalMs     float64 `json:"total_ms"`
	CorrectRate float64 `json:"correct_rate"`
}

type seedResult struct {
	Seed     string        `json:"seed"`
	Runs     []runResult   `json:"runs"`
	Averages *seedAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	RunsPerSeed int          `json:"runs_per_seed"`
	Results     []seedResult `json:"results"`
}

func main() {
	flag.Parse()

	if *seedFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -seeds is required")
		os.Exit(1)
	}
	seeds, err := readSeeds(*seedFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading seeds: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== quizd Benchmark Suite ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Seeds:      %d\n", len(seeds))
	fmt.Printf("Runs/seed:  %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure quizd is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerSeed: *runs,
	}

	for _, seed := range seeds {
		fmt.Printf("Benchmarking %s ...\n", seed)
		sr := seedResult{Seed: seed}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkSeed(seed, i)
			if rr.Success {
				fmt.Printf("OK  %dms  correct=%t\n", rr.TotalMs, rr.Correct)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			sr.Runs = append(sr.Runs, rr)
		}

		sr.Averages = computeAverages(sr.Runs)
		report.Results = append(report.Results, sr)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func readSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var seeds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed URLs in %s", path)
	}
	return seeds, sc.Err()
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkSeed(seed string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(solveRequest{Email: *email, Secret: *secret, URL: seed})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/quiz", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")

	// A chain can legitimately take the whole solving budget.
	client := &http.Client{Timeout: 300 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.TotalMs = time.Since(start).Milliseconds()

	var sr solveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Correct = sr.Correct
	if sr.URL != nil {
		rr.FinalURL = *sr.URL
	}
	if sr.Error != nil {
		rr.Error = fmt.Sprintf("[%s] %s", sr.Error.Code, sr.Error.Message)
		return rr
	}

	rr.Success = resp.StatusCode == http.StatusOK
	return rr
}

func computeAverages(runs []runResult) *seedAverages {
	var successCount, correctCount int
	var avg seedAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		if r.Correct {
			correctCount++
		}
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.CorrectRate = float64(correctCount) / n * 100
	return &avg
}

func printTable(results []seedResult) {
	fmt.Println(strings.Repeat("─", 75))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Seed\tAvg Latency\tCorrect\n")
	fmt.Fprintf(w, "────\t───────────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\n", truncateURL(r.Seed, 45))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.0f%%\n",
			truncateURL(r.Seed, 45),
			int64(r.Averages.TotalMs),
			r.Averages.CorrectRate,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 75))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
