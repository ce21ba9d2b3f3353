package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	factsCmd := &cobra.Command{
		Use:   "facts",
		Short: "Manage the session's identity canon",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List canon facts",
		Run:   runFactsList,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Record a canon fact",
		Args:  cobra.ExactArgs(2),
		Run:   runFactsSet,
	}
	setCmd.Flags().Bool("lock", false, "Lock the fact against later rewrites")

	factsCmd.AddCommand(listCmd, setCmd)
	RootCmd.AddCommand(factsCmd)
}

func runFactsList(cmd *cobra.Command, args []string) {
	sess, err := newMesh().Session(cmd.Context(), sessionID)
	if err != nil {
		exitErr("session", err)
	}
	for _, f := range sess.Ledger().Facts() {
		locked := ""
		if f.Locked {
			locked = " [locked]"
		}
		fmt.Printf("%s = %s%s\n", f.Key, f.Value, locked)
	}
}

func runFactsSet(cmd *cobra.Command, args []string) {
	lock, _ := cmd.Flags().GetBool("lock")
	ctx := cmd.Context()
	sess, err := newMesh().Session(ctx, sessionID)
	if err != nil {
		exitErr("session", err)
	}
	if err := sess.SetFact(ctx, args[0], args[1], lock); err != nil {
		exitErr("set fact", err)
	}
	fmt.Printf("recorded %s\n", args[0])
}
