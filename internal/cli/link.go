package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shindanlab/shindan/internal/diagnostic/link"
)

// newLinkCmd creates the link command, attaching stored sessions to the
// logged-in account.
func newLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link [session-code]...",
		Short: "Link stored sessions to the logged-in account",
		Long: `Link locally stored, not-yet-linked sessions to the logged-in account.
Without arguments every eligible stored session is linked; session codes
given as arguments act as an allow-list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.newLinker().LinkPending(cmd.Context(), args...)
			if jsonOutput {
				printJSON(map[string]interface{}{
					"status":         string(res.Status),
					"linked":         res.Linked,
					"already_linked": res.AlreadyLinked,
				})
				if res.Status == link.StatusError {
					return ErrAlreadyHandled
				}
				return nil
			}

			switch res.Status {
			case link.StatusSkipped:
				cmd.Println("Not logged in; nothing was linked. Set an access token first.")
			case link.StatusNoop:
				cmd.Println("No stored sessions need linking.")
			case link.StatusLinked:
				okLabel.Fprintf(cmd.OutOrStdout(), "Linked %d session(s), %d already linked.\n",
					len(res.Linked), len(res.AlreadyLinked))
			case link.StatusError:
				return fmt.Errorf("linking failed: %w", res.Err)
			}
			return nil
		},
	}
}
