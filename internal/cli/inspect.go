package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/personamesh"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the session's component state",
		Long:  "Print affect, drive, short-term window and long-term record diagnostics as JSON.",
		Run:   runInspect,
	}

	RootCmd.AddCommand(cmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	printDiagnostics(cmd.Context(), newMesh())
}

func printDiagnostics(ctx context.Context, mesh *personamesh.PersonaMesh) {
	diag, err := mesh.Introspect(ctx, sessionID)
	if err != nil {
		exitErr("introspect", err)
	}
	b, _ := json.MarshalIndent(diag, "", "  ")
	fmt.Println(string(b))
}
