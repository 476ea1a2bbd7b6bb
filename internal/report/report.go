package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vladimirlihacky/CaAA/internal/logging"
)

type Summary struct {
	Total        int            `json:"total"`
	Succeeded    int            `json:"succeeded"`
	ClientErrors int            `json:"client_errors"`
	ServerErrors int            `json:"server_errors"`
	RateLimited  int            `json:"rate_limited"`
	Matches      int            `json:"matches"`
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	Endpoints    []CountItem    `json:"endpoints"`
	StatusCodes  []CountItem    `json:"status_codes"`
	TopClients   []CountItem    `json:"top_clients"`
	TopRateLimit []CountItem    `json:"top_rate_limits"`
	Latency      LatencySummary `json:"latency"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type LatencySummary struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Reader loads request log entries, skipping those before Since.
type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]logging.Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return r.Decode(file)
}

func (r *Reader) Decode(in io.Reader) ([]logging.Request, error) {
	var requests []logging.Request
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var req logging.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !r.Since.IsZero() && req.Timestamp.Before(r.Since) {
			continue
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func Summarize(requests []logging.Request) Summary {
	var summary Summary
	if len(requests) == 0 {
		return summary
	}

	summary.Start = requests[0].Timestamp
	summary.End = requests[0].Timestamp

	endpointCounts := map[string]int{}
	statusCounts := map[string]int{}
	clientCounts := map[string]int{}
	ratelimitCounts := map[string]int{}
	latencies := make([]int64, 0, len(requests))

	for _, req := range requests {
		summary.Total++
		if req.Timestamp.Before(summary.Start) {
			summary.Start = req.Timestamp
		}
		if req.Timestamp.After(summary.End) {
			summary.End = req.Timestamp
		}

		switch {
		case req.StatusCode >= 500:
			summary.ServerErrors++
		case req.StatusCode >= 400:
			summary.ClientErrors++
		case req.StatusCode >= 200:
			summary.Succeeded++
		}

		if req.RateLimited {
			summary.RateLimited++
			ratelimitCounts[req.ClientIP]++
		}
		summary.Matches += req.Matches

		if req.Endpoint != "" {
			endpointCounts[req.Endpoint]++
		}
		if req.StatusCode != 0 {
			statusCounts[strconv.Itoa(req.StatusCode)]++
		}
		if req.ClientIP != "" {
			clientCounts[req.ClientIP]++
		}

		latencies = append(latencies, req.DurationMS)
	}

	summary.Endpoints = topCounts(endpointCounts, len(endpointCounts))
	summary.StatusCodes = topCounts(statusCounts, len(statusCounts))
	summary.TopClients = topCounts(clientCounts, 5)
	summary.TopRateLimit = topCounts(ratelimitCounts, 5)
	summary.Latency = latencySummary(latencies)

	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

func latencySummary(values []int64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencySummary{
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

// percentile expects values sorted ascending.
func percentile(values []int64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	idx := int(float64(len(values)-1) * p)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return float64(values[idx])
}

func RenderText(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total: %d\n", summary.Total)
	fmt.Fprintf(&b, "Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Client errors: %d\n", summary.ClientErrors)
	fmt.Fprintf(&b, "Server errors: %d\n", summary.ServerErrors)
	fmt.Fprintf(&b, "Rate limited: %d\n", summary.RateLimited)
	fmt.Fprintf(&b, "Matches returned: %d\n", summary.Matches)
	fmt.Fprintf(&b, "Latency p50/p95/p99 (ms): %.0f/%.0f/%.0f\n", summary.Latency.P50, summary.Latency.P95, summary.Latency.P99)

	writeCounts(&b, "Endpoints", summary.Endpoints)
	writeCounts(&b, "Status codes", summary.StatusCodes)
	writeCounts(&b, "Top clients", summary.TopClients)
	writeCounts(&b, "Top rate-limited", summary.TopRateLimit)

	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# CaAA Report\n\n")
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- Total: %d\n", summary.Total)
	fmt.Fprintf(&b, "- Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "- Client errors: %d\n", summary.ClientErrors)
	fmt.Fprintf(&b, "- Server errors: %d\n", summary.ServerErrors)
	fmt.Fprintf(&b, "- Rate limited: %d\n", summary.RateLimited)
	fmt.Fprintf(&b, "- Matches returned: %d\n", summary.Matches)
	fmt.Fprintf(&b, "- Latency p50/p95/p99 (ms): %.0f/%.0f/%.0f\n\n", summary.Latency.P50, summary.Latency.P95, summary.Latency.P99)

	writeCountsMarkdown(&b, "Endpoints", summary.Endpoints)
	writeCountsMarkdown(&b, "Status codes", summary.StatusCodes)
	writeCountsMarkdown(&b, "Top clients", summary.TopClients)
	writeCountsMarkdown(&b, "Top rate-limited", summary.TopRateLimit)

	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

func writeCounts(b *strings.Builder, title string, items []CountItem) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
}

func writeCountsMarkdown(b *strings.Builder, title string, items []CountItem) {
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
	b.WriteString("\n")
}

// WriteOutput writes content to path, or to w when path is empty.
func WriteOutput(w io.Writer, path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(w, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o600)
}
