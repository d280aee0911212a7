package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type intentPayload struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

type intentResponse struct {
	Success     bool   `json:"success"`
	CashierCode string `json:"cashierCode"`
}

type verifyPayload struct {
	Mobile      string `json:"mobile"`
	CashierCode string `json:"cashierCode"`
}

type LoadTestConfig struct {
	BaseURL           string
	PairsPerSecond    int
	DurationSeconds   int
	ConcurrentWorkers int
}

// Stats tracks one endpoint.
type Stats struct {
	successCount  atomic.Int64
	errorCount    atomic.Int64
	responseTimes []float64
	mu            sync.Mutex
}

func (s *Stats) record(d time.Duration, ok bool) {
	if ok {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}
	s.mu.Lock()
	s.responseTimes = append(s.responseTimes, d.Seconds())
	s.mu.Unlock()
}

func (s *Stats) getResponseTimes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := make([]float64, len(s.responseTimes))
	copy(times, s.responseTimes)
	return times
}

func post(client *http.Client, url string, payload any, out any) (time.Duration, bool) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, false
	}

	start := time.Now()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return time.Since(start), false
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	d := time.Since(start)
	if resp.StatusCode != http.StatusOK {
		return d, false
	}
	if out != nil && json.Unmarshal(raw, out) != nil {
		return d, false
	}
	return d, true
}

// runPair issues a code for a synthetic mobile and immediately redeems it.
func runPair(client *http.Client, config LoadTestConfig, seq int64, intents, verifies *Stats) {
	mobile := fmt.Sprintf("9%09d", seq)

	var ir intentResponse
	d, ok := post(client, config.BaseURL+"/cash-intent", intentPayload{Name: "Load Test", Mobile: mobile}, &ir)
	ok = ok && ir.Success && ir.CashierCode != ""
	intents.record(d, ok)
	if !ok {
		return
	}

	d, ok = post(client, config.BaseURL+"/verify-cashier-code", verifyPayload{Mobile: mobile, CashierCode: ir.CashierCode}, nil)
	verifies.record(d, ok)
}

func worker(client *http.Client, config LoadTestConfig, seq *atomic.Int64, intents, verifies *Stats, jobs <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	for range jobs {
		runPair(client, config, seq.Add(1), intents, verifies)
	}
}

func calculatePercentile(sorted []float64, percentile float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * percentile)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func printStats(name string, s *Stats, duration float64) {
	times := s.getResponseTimes()
	sort.Float64s(times)

	success := s.successCount.Load()
	failed := s.errorCount.Load()
	total := success + failed

	var sum float64
	for _, t := range times {
		sum += t
	}

	fmt.Printf("\n%s\n", name)
	fmt.Printf("  Requests: %d (ok %d, failed %d)\n", total, success, failed)
	if total > 0 {
		fmt.Printf("  Success rate: %.2f%%\n", float64(success)/float64(total)*100)
		fmt.Printf("  RPS: %.2f\n", float64(total)/duration)
	}
	if len(times) > 0 {
		fmt.Printf("  Average: %.2f ms\n", sum/float64(len(times))*1000)
		fmt.Printf("  P50: %.2f ms\n", calculatePercentile(times, 0.50)*1000)
		fmt.Printf("  P95: %.2f ms\n", calculatePercentile(times, 0.95)*1000)
		fmt.Printf("  P99: %.2f ms\n", calculatePercentile(times, 0.99)*1000)
		fmt.Printf("  Min: %.2f ms\n", times[0]*1000)
		fmt.Printf("  Max: %.2f ms\n", times[len(times)-1]*1000)
	}
}

func main() {
	config := LoadTestConfig{
		BaseURL:           strings.TrimRight(getEnvOrDefault("TARGET_URL", "http://localhost:5000"), "/"),
		PairsPerSecond:    getEnvIntOrDefault("PAIRS_PER_SECOND", 500),
		DurationSeconds:   getEnvIntOrDefault("DURATION_SECONDS", 30),
		ConcurrentWorkers: getEnvIntOrDefault("CONCURRENT_WORKERS", 100),
	}

	fmt.Println("Starting cash checkout load test...")
	fmt.Printf("Target: %s\n", config.BaseURL)
	fmt.Printf("Target pairs/s: %d\n", config.PairsPerSecond)
	fmt.Printf("Concurrent workers: %d\n", config.ConcurrentWorkers)
	fmt.Printf("Duration: %d seconds\n", config.DurationSeconds)
	fmt.Println(strings.Repeat("-", 50))

	intents, verifies := &Stats{}, &Stats{}
	var seq atomic.Int64
	seq.Store(time.Now().Unix() % 100_000 * 10_000)

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        config.ConcurrentWorkers,
			MaxIdleConnsPerHost: config.ConcurrentWorkers,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}

	jobs := make(chan struct{}, config.PairsPerSecond)

	var wg sync.WaitGroup
	for i := 0; i < config.ConcurrentWorkers; i++ {
		wg.Add(1)
		go worker(client, config, &seq, intents, verifies, jobs, &wg)
	}

	startTime := time.Now()
	for i := 0; i < config.DurationSeconds; i++ {
		batchStart := time.Now()
		for j := 0; j < config.PairsPerSecond; j++ {
			jobs <- struct{}{}
		}

		fmt.Printf("[%ds] intents ok %d | verifies ok %d | errors %d\n",
			i+1, intents.successCount.Load(), verifies.successCount.Load(),
			intents.errorCount.Load()+verifies.errorCount.Load())

		if elapsed := time.Since(batchStart); elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}

	close(jobs)
	wg.Wait()
	duration := time.Since(startTime).Seconds()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Duration: %.2f seconds\n", duration)
	printStats("POST /cash-intent", intents, duration)
	printStats("POST /verify-cashier-code", verifies, duration)
}
