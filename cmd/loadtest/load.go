package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

type options struct {
	url       string
	rps       int
	duration  time.Duration
	workers   int
	timeout   time.Duration
	p90Target time.Duration
}

type diagnosePayload struct {
	Evidence map[string]int `json:"evidence"`
	TopN     int            `json:"top_n"`
}

type result struct {
	latency time.Duration
	status  int
	err     error
}

func payload() ([]byte, error) {
	return json.Marshal(diagnosePayload{
		Evidence: map[string]int{
			"difficulty_starting": 1,
			"battery_ok":          0,
			"starter_sound":       0,
			"fuel_smell":          0,
			"overheating":         0,
		},
		TopN: 3,
	})
}

// run fires one request per tick until the deadline, spread over a fixed
// worker pool.
func run(opts options) ([]result, error) {
	body, err := payload()
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	client := &http.Client{Timeout: opts.timeout}
	jobs := make(chan struct{}, opts.workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]result, 0, opts.rps*int(opts.duration.Seconds())+1)
	record := func(r result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				record(post(client, opts.url, body))
			}
		}()
	}

	ticker := time.NewTicker(time.Second / time.Duration(opts.rps))
	defer ticker.Stop()
	deadline := time.Now().Add(opts.duration)
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

func post(client *http.Client, url string, body []byte) result {
	start := time.Now()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return result{latency: time.Since(start), err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{latency: lat, err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return result{latency: lat, status: resp.StatusCode}
}

type report struct {
	requests    int
	success2xx  int
	non2xx      int
	errs        int
	achievedRPS float64
	duration    time.Duration
	avg         time.Duration
	p50         time.Duration
	p90         time.Duration
	p99         time.Duration
}

func summarize(results []result, duration time.Duration) (report, error) {
	if len(results) == 0 {
		return report{}, fmt.Errorf("no requests executed")
	}

	rep := report{requests: len(results), duration: duration}
	latencies := make([]time.Duration, 0, len(results))
	for _, r := range results {
		latencies = append(latencies, r.latency)
		switch {
		case r.err != nil:
			rep.errs++
		case r.status >= 200 && r.status < 300:
			rep.success2xx++
		default:
			rep.non2xx++
		}
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	rep.p50 = percentile(latencies, 50)
	rep.p90 = percentile(latencies, 90)
	rep.p99 = percentile(latencies, 99)
	rep.avg = average(latencies)
	rep.achievedRPS = float64(len(latencies)) / duration.Seconds()
	return rep, nil
}

func (r report) meets(rps int, p90Target time.Duration) bool {
	return r.achievedRPS >= float64(rps)*0.98 && r.p90 < p90Target && r.errs == 0 && r.non2xx == 0
}

func (r report) print(w io.Writer, targetRPS int) {
	fmt.Fprintf(w, "Load test finished\n")
	fmt.Fprintf(w, "- target_rps: %d\n", targetRPS)
	fmt.Fprintf(w, "- achieved_rps: %.2f\n", r.achievedRPS)
	fmt.Fprintf(w, "- duration: %s\n", r.duration)
	fmt.Fprintf(w, "- requests: %d\n", r.requests)
	fmt.Fprintf(w, "- 2xx: %d\n", r.success2xx)
	fmt.Fprintf(w, "- non_2xx: %d\n", r.non2xx)
	fmt.Fprintf(w, "- errors: %d\n", r.errs)
	fmt.Fprintf(w, "- avg_ms: %.3f\n", ms(r.avg))
	fmt.Fprintf(w, "- p50_ms: %.3f\n", ms(r.p50))
	fmt.Fprintf(w, "- p90_ms: %.3f\n", ms(r.p90))
	fmt.Fprintf(w, "- p99_ms: %.3f\n", ms(r.p99))
}

func percentile(items []time.Duration, p int) time.Duration {
	if len(items) == 0 {
		return 0
	}
	idx := (len(items) - 1) * p / 100
	return items[idx]
}

func average(items []time.Duration) time.Duration {
	if len(items) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range items {
		total += d
	}
	return total / time.Duration(len(items))
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
