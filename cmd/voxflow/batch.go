package main

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/voxflow/internal/orchestrator"
)

// batchLine is one NDJSON output record.
type batchLine struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Matched  bool   `json:"matched"`
	ModeID   string `json:"modeID,omitempty"`
	ModeName string `json:"modeName,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (a *app) batchCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Transform NDJSON requests read from stdin",
		Long: `Batch reads one JSON request per line ({"text": ..., "bundleIdentifier": ...})
and writes one JSON result per line in input order. Failed requests carry
the original text and an error; they do not stop the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if concurrency <= 0 {
				concurrency = a.settings.MaxConcurrentRuns
			}
			return a.runBatch(cmd, concurrency)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "maximum requests in flight (default from settings)")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, concurrency int) error {
	var reqs []orchestrator.Request
	parseErrs := map[int]error{}

	sc := bufio.NewScanner(a.stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var req orchestrator.Request
		if err := json.Unmarshal(line, &req); err != nil {
			parseErrs[len(reqs)] = fmt.Errorf("invalid request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	svc, err := a.buildServices()
	if err != nil {
		return err
	}
	defer svc.close()
	svc.watch(cmd.Context(), a.settings.WatchConfig)

	valid := make([]orchestrator.Request, 0, len(reqs))
	positions := make([]int, 0, len(reqs))
	for i, r := range reqs {
		if parseErrs[i] == nil {
			valid = append(valid, r)
			positions = append(positions, i)
		}
	}
	results := svc.executor.ProcessBatch(cmd.Context(), valid, concurrency)

	lines := make([]batchLine, len(reqs))
	for i, err := range parseErrs {
		lines[i] = batchLine{Index: i, Error: err.Error()}
	}
	for j, res := range results {
		i := positions[j]
		line := batchLine{Index: i, Text: res.Request.Text}
		if res.Err != nil {
			line.Error = res.Err.Error()
		} else {
			line.Text = res.Response.Text
			line.Matched = res.Response.Matched
			line.ModeID = res.Response.ModeID
			line.ModeName = res.Response.ModeName
		}
		lines[i] = line
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetEscapeHTML(false)
	failed := 0
	for _, line := range lines {
		if line.Error != "" {
			failed++
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if failed > 0 {
		a.logger.Warn("batch finished with failures",
			zap.Int("failed", failed),
			zap.Int("total", len(lines)))
	}
	return nil
}
