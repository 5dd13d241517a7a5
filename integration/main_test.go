//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/gamebook-engine/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")
var runsFlag = flag.Int("runs", 1, "Number of times to run each test suite (useful for testing non-deterministic narration)")
var bookFlag = flag.String("book", "", "Override book for all test cases (e.g., 'warlock-mountain')")

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func newTestRunner() *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.BookOverride = *bookFlag
	r.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

func TestMain(m *testing.M) {
	fmt.Printf("Running Gamebook Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func TestIntegrationSuites(t *testing.T) {
	testRunner := newTestRunner()
	testRunner.ErrorHandlingMode = runner.ErrorHandlingContinue

	testFiles, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range testFiles {
		expandedJobs, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expandedJobs...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	t.Logf("Loaded %d test suites", len(jobs))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Running test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

		result, err := testRunner.RunSuite(ctx, job.Suite)
		if err != nil && result.Error == nil {
			result.Error = err
		}

		logSuiteResult(t, result)
		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, result.Error))
		}
	}

	t.Logf("\nIntegration Test Summary:")
	t.Logf("   Passed: %d", len(jobs)-len(failed))
	t.Logf("   Failed: %d", len(failed))

	if len(failed) > 0 {
		for _, failure := range failed {
			t.Logf("   - %s", failure)
		}
		t.Fatalf("Integration tests failed")
	}
}

// TestSingleSuite allows running individual test suites for debugging
// Supports multiple cases comma-separated: -case "case1,case2"
func TestSingleSuite(t *testing.T) {
	flag.Parse()

	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	if *runsFlag < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", *runsFlag)
	}

	var suiteFiles []string
	for _, caseName := range strings.Split(*caseFlag, ",") {
		caseName = strings.TrimSpace(caseName)
		if caseName == "" {
			continue
		}
		suiteFile := "cases/" + caseName
		if !strings.HasSuffix(suiteFile, ".json") {
			suiteFile += ".json"
		}
		suiteFiles = append(suiteFiles, suiteFile)
	}
	if len(suiteFiles) == 0 {
		t.Fatalf("No valid test cases found in -case flag: %s", *caseFlag)
	}

	testRunner := newTestRunner()
	testRunner.ErrorHandlingMode = runner.ErrorHandlingMode(*errFlag)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	totalFailures := 0
	for run := 1; run <= *runsFlag; run++ {
		if *runsFlag > 1 {
			t.Logf("=== RUN %d/%d ===", run, *runsFlag)
		}

		for _, suiteFile := range suiteFiles {
			jobs, err := runner.LoadTestSuiteWithExpansion(suiteFile, "cases")
			if err != nil {
				t.Errorf("Failed to load test suite %s: %v", suiteFile, err)
				totalFailures++
				continue
			}

			for _, job := range jobs {
				t.Logf("Running test suite: %s", job.Name)

				result, err := testRunner.RunSuite(ctx, job.Suite)
				if err != nil && result.Error == nil {
					result.Error = err
				}

				logSuiteResult(t, result)
				if result.Error != nil {
					totalFailures++
					if *errFlag == "exit" && *runsFlag == 1 {
						t.Fatalf("Test suite '%s' failed: %v", job.Name, result.Error)
					}
				}
			}
		}
	}

	if totalFailures > 0 {
		t.Fatalf("Test suite(s) had %d failure(s)", totalFailures)
	}
}

func logSuiteResult(t *testing.T, result runner.TestRunResult) {
	t.Logf("Session ID: %s", result.Session.String())

	if result.Error != nil {
		t.Errorf("FAILED: Test suite '%s': %v", result.Job.Name, result.Error)
	} else {
		t.Logf("PASSED: Test suite '%s' completed in %v", result.Job.Name, result.Duration)
	}

	for _, stepResult := range result.Results {
		switch {
		case stepResult.IsReset:
			t.Logf("   ↻ %s (%v)", stepResult.StepName, stepResult.Duration)
		case stepResult.Success:
			t.Logf("   ✓ %s (%v)", stepResult.StepName, stepResult.Duration)
		default:
			t.Errorf("   ✗ %s: %v", stepResult.StepName, stepResult.Error)
		}
	}
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
