package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/voxflow/internal/orchestrator"
)

type transformFlags struct {
	BundleID string
	JSON     bool
	Progress bool
}

func (a *app) transformCmd() *cobra.Command {
	var flags transformFlags
	cmd := &cobra.Command{
		Use:   "transform [text...]",
		Short: "Transform one piece of dictated text",
		Long: `Transform matches the text to a mode and runs its pipeline. The text is
read from the arguments, or from stdin when none are given. On failure the
original text is written to stdout and the reason to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTransform(cmd, args, flags)
		},
	}
	cmd.Flags().StringVar(&flags.BundleID, "bundle-id", "", "bundle identifier of the frontmost application")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print the full response as JSON")
	cmd.Flags().BoolVar(&flags.Progress, "progress", false, "print step progress to stderr")
	return cmd
}

func (a *app) runTransform(cmd *cobra.Command, args []string, flags transformFlags) error {
	text, err := a.inputText(args)
	if err != nil {
		return err
	}

	var opts []orchestrator.ExecutorOption
	var progress *orchestrator.ProgressReporter
	var wg sync.WaitGroup
	if flags.Progress {
		progress = orchestrator.NewProgressReporter()
		opts = append(opts, orchestrator.WithProgress(progress))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range progress.Subscribe() {
				fmt.Fprintln(a.stderr, orchestrator.FormatProgress(ev))
			}
		}()
	}

	svc, err := a.buildServices(opts...)
	if err != nil {
		if progress != nil {
			progress.Close()
			wg.Wait()
		}
		return err
	}
	defer svc.close()

	resp, err := svc.executor.Process(cmd.Context(), orchestrator.Request{Text: text, BundleID: flags.BundleID})
	if progress != nil {
		progress.Close()
		wg.Wait()
	}
	if err != nil {
		fmt.Fprintln(a.stdout, text)
		fmt.Fprintf(a.stderr, "transformation failed: %v\n", err)
		return errSilent
	}

	if flags.JSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetEscapeHTML(false)
		return enc.Encode(resp)
	}
	fmt.Fprintln(a.stdout, resp.Text)
	return nil
}

// inputText joins args, or reads stdin when there are none. One trailing
// newline from stdin is dropped.
func (a *app) inputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}
