package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("🚂 Conductor v%s\n", version)
			fmt.Printf("   %s/%s, %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
		},
	}
}
