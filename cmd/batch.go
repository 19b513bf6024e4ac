package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aeolive/competitor-cli/internal/model"
)

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
	batchRecord      bool
)

// domainColumns are the CSV headers accepted as the domain column, in
// preference order.
var domainColumns = []string{"domain", "url", "website"}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run discovery over a list of domains",
	Long: `Reads domains from a CSV file with a domain, url, or website column, or
from a plain file with one domain per line. Writes one JSON result per line
in input order.

Examples:
  competitor-cli batch --input leads.csv --output results.ndjson
  competitor-cli batch --input domains.txt --concurrency 10 --record`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}

		f, err := os.Open(batchInput)
		if err != nil {
			return eris.Wrap(err, "batch: open input")
		}
		domains, err := readDomains(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		zap.L().Info("batch: parsed input", zap.Int("domains", len(domains)))

		env, err := initDiscovery(ctx, "batch", batchRecord)
		if err != nil {
			return err
		}
		defer env.Close()

		results := runBatch(ctx, env, domains, cfg.Batch.Concurrency)

		return writeBatchOutput(batchOutput, results)
	},
}

// writeBatchOutput writes NDJSON to path, or stdout when path is empty. The
// file is closed explicitly so a failed final flush is reported.
func writeBatchOutput(path string, results []*model.DiscoveryResult) error {
	if path == "" {
		return writeNDJSON(os.Stdout, results)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "batch: create output")
	}
	if err := writeNDJSON(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "batch: close output")
	}
	return nil
}

// runBatch discovers every domain with at most limit in flight. The result
// slice is index-aligned with domains.
func runBatch(ctx context.Context, env *discoveryEnv, domains []string, limit int) []*model.DiscoveryResult {
	results := make([]*model.DiscoveryResult, len(domains))
	var degraded, recorded atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, domain := range domains {
		g.Go(func() error {
			res := env.Service.Discover(gCtx, domain)
			results[i] = res
			if res.Status != model.DiscoveryComplete {
				degraded.Add(1)
			}

			if env.Store != nil {
				if _, err := env.Store.RecordRun(gCtx, res); err != nil {
					zap.L().Warn("batch: record run failed",
						zap.String("domain", domain),
						zap.Error(err),
					)
				} else {
					recorded.Add(1)
				}
			}
			return nil // one domain never aborts the batch
		})
	}
	_ = g.Wait()

	zap.L().Info("batch: complete",
		zap.Int("total", len(domains)),
		zap.Int64("degraded", degraded.Load()),
		zap.Int64("recorded", recorded.Load()),
	)
	return results
}

// readDomains parses either a CSV with a recognized header or a plain list.
// Blank lines and lines starting with # are skipped in plain lists.
func readDomains(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read input")
	}

	first, _, _ := bytes.Cut(data, []byte("\n"))
	if col := headerColumn(string(first)); col >= 0 {
		return readCSVDomains(data, col)
	}

	var domains []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: scan input")
	}
	return domains, nil
}

// headerColumn returns the index of the preferred domain column in a CSV
// header line, or -1 when the line is not such a header.
func headerColumn(line string) int {
	if !strings.Contains(line, ",") && !isDomainHeader(line) {
		return -1
	}
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return -1
	}
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(f, "\ufeff")))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	for _, name := range domainColumns {
		if i, ok := idx[name]; ok {
			return i
		}
	}
	return -1
}

func isDomainHeader(line string) bool {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "\ufeff")))
	for _, name := range domainColumns {
		if key == name {
			return true
		}
	}
	return false
}

func readCSVDomains(data []byte, col int) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv")
	}

	var domains []string
	for _, row := range records[1:] {
		if col >= len(row) {
			continue
		}
		if d := strings.TrimSpace(row[col]); d != "" {
			domains = append(domains, d)
		}
	}
	return domains, nil
}

func writeNDJSON(w io.Writer, results []*model.DiscoveryResult) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "batch: write result")
		}
	}
	return nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or newline-delimited domain file (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write NDJSON results to file (default: stdout)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max domains in flight (default from config)")
	batchCmd.Flags().BoolVar(&batchRecord, "record", false, "journal each result in the configured store")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
