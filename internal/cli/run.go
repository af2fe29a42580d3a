package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shindanlab/shindan/internal/diagnostic/backend"
	"github.com/shindanlab/shindan/internal/diagnostic/llmexec"
	"github.com/shindanlab/shindan/internal/diagnostic/result"
	"github.com/shindanlab/shindan/internal/diagnostic/session"
	"github.com/shindanlab/shindan/internal/diagnostic/submit"
)

// runOutput is the JSON shape of a completed run.
type runOutput struct {
	DiagnosticCode string          `json:"diagnostic_code"`
	SessionCode    string          `json:"session_code"`
	VersionID      int64           `json:"version_id"`
	Submit         string          `json:"submit_status"`
	Generation     string          `json:"generation_status"`
	Warnings       []string        `json:"warnings,omitempty"`
	Ranking        result.Snapshot `json:"ranking,omitempty"`
}

// newRunCmd creates the run command: start a session, submit answers from a
// file, wait for the generated result, link, and print the ranking.
func newRunCmd() *cobra.Command {
	var answersFile string
	var forceRegenerate bool

	cmd := &cobra.Command{
		Use:   "run <diagnostic-code>",
		Short: "Run a diagnostic end to end from an answers file",
		Long: `Run a diagnostic end to end: start (or resume) a session, submit the
answers from the given JSON file, wait for result generation, link the
session if logged in, and print the ranking.

The answers file maps question codes to selected option ids:

  {
    "q1": [101],
    "q2": [204, 207]
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnostic(cmd, args[0], answersFile, forceRegenerate)
		},
	}
	cmd.Flags().StringVarP(&answersFile, "answers", "a", "", "Path to the answers JSON file (required)")
	cmd.Flags().BoolVarP(&forceRegenerate, "force-regenerate", "f", false, "Regenerate the result even if one exists")
	cmd.MarkFlagRequired("answers")
	return cmd
}

func runDiagnostic(cmd *cobra.Command, diagnosticCode, answersFile string, forceRegenerate bool) error {
	choices, err := readAnswersFile(answersFile)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	manager := session.NewManager(diagnosticCode, a.store, a.notifier, a.logger)

	issued, apperr := a.client.StartSession(ctx, diagnosticCode)
	if apperr != nil {
		return fmt.Errorf("failed to start session: %w", apperr)
	}
	manager.ReconcileWith(session.IssuedSession{
		SessionCode: issued.SessionCode,
		VersionID:   issued.VersionID,
		ExpiresAt:   issued.ExpiresAt,
	})

	var optionIDs []int64
	for questionCode, ids := range choices {
		manager.UpsertChoice(questionCode, ids)
	}
	record := manager.Record()
	for _, ids := range record.Choices {
		optionIDs = append(optionIDs, ids...)
	}
	if len(optionIDs) == 0 {
		return fmt.Errorf("answers file %s contains no selected options", answersFile)
	}

	answeredAt := time.Now()
	submitter := submit.NewSubmitter(manager, a.client, a.notifier, a.logger)
	subRes := submitter.Submit(ctx, submit.Params{
		SessionCode: issued.SessionCode,
		VersionID:   issued.VersionID,
		OptionIDs:   optionIDs,
		AnsweredAt:  &answeredAt,
	})
	switch subRes.Status {
	case submit.StatusSuccess, submit.StatusDuplicateAnswer:
	default:
		return fmt.Errorf("answer submission failed: %s", subRes.Status)
	}

	executor := llmexec.NewExecutor(manager, a.client, a.notifier, a.logger)
	poller := llmexec.NewPoller(executor, a.notifier, a.logger).
		WithPolicy(a.cfg.LLM.GetPollInterval(), a.cfg.LLM.GetMaxWait())

	var opts backend.GenerationOptions
	if forceRegenerate {
		opts.ForceRegenerate = &forceRegenerate
	}
	genRes := poller.Run(ctx, llmexec.Params{SessionCode: issued.SessionCode, Options: opts})
	if genRes.Status != llmexec.StatusSuccess {
		return fmt.Errorf("result generation failed: %s", genRes.Status)
	}

	// Best-effort: linking requires a logged-in token and may be skipped.
	a.newLinker().LinkPending(ctx)

	out := runOutput{
		DiagnosticCode: diagnosticCode,
		SessionCode:    issued.SessionCode,
		VersionID:      issued.VersionID,
		Submit:         string(subRes.Status),
		Generation:     string(genRes.Status),
		Warnings:       genRes.Warnings,
		Ranking:        genRes.Snapshot,
	}
	if jsonOutput {
		printJSON(out)
		return nil
	}
	printRanking(cmd, out)
	return nil
}

func readAnswersFile(path string) (map[string][]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read answers file: %w", err)
	}
	var choices map[string][]int64
	if err := json.Unmarshal(data, &choices); err != nil {
		return nil, fmt.Errorf("unable to parse answers file: %w", err)
	}
	return choices, nil
}

func printRanking(cmd *cobra.Command, out runOutput) {
	okLabel.Fprintf(cmd.OutOrStdout(), "Completed %s (session %s)\n", out.DiagnosticCode, out.SessionCode)
	for _, warning := range out.Warnings {
		errorLabel.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
	}

	ranks := make([]int, 0, len(out.Ranking))
	for key := range out.Ranking {
		if rank, err := strconv.Atoi(key); err == nil {
			ranks = append(ranks, rank)
		}
	}
	sort.Ints(ranks)
	for _, rank := range ranks {
		rec := out.Ranking[strconv.Itoa(rank)]
		cmd.Printf("%2d. %s  total=%s personality=%s work=%s\n",
			rank, rec.Name,
			formatScore(rec.TotalMatch.Score),
			formatScore(rec.PersonalityMatch.Score),
			formatScore(rec.WorkMatch.Score))
	}
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}
