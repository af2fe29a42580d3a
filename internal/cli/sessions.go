package cli

import (
	"github.com/spf13/cobra"
)

// sessionRow is one locally stored session in list output.
type sessionRow struct {
	DiagnosticCode string `json:"diagnostic_code"`
	SessionCode    string `json:"session_code,omitempty"`
	Status         string `json:"status"`
	VersionID      *int64 `json:"version_id,omitempty"`
	Answered       int    `json:"answered"`
	Linked         bool   `json:"linked"`
	CompletedAt    string `json:"completed_at,omitempty"`
}

// newSessionsCmd creates the sessions command, listing stored snapshots.
func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List locally stored diagnostic sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var rows []sessionRow
			for _, code := range a.store.ListCodes() {
				record, ok := a.store.Read(code)
				if !ok {
					continue
				}
				row := sessionRow{
					DiagnosticCode: record.DiagnosticCode,
					Status:         string(record.Status),
					VersionID:      record.VersionID,
					Answered:       len(record.Choices),
					Linked:         record.IsLinked,
				}
				if record.SessionCode != nil {
					row.SessionCode = *record.SessionCode
				}
				if record.CompletedAt != nil {
					row.CompletedAt = *record.CompletedAt
				}
				rows = append(rows, row)
			}

			if jsonOutput {
				printJSON(rows)
				return nil
			}
			if len(rows) == 0 {
				cmd.Println("No stored sessions.")
				return nil
			}
			for _, row := range rows {
				linked := ""
				if row.Linked {
					linked = " linked"
				}
				cmd.Printf("%-20s %-12s answered=%d%s\n", row.DiagnosticCode, row.Status, row.Answered, linked)
			}
			return nil
		},
	}
}
