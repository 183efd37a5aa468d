// aksctl 直接连接单个 AKS 读卡器的调试工具
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func newRootCmd(opts *connOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aksctl",
		Short: "AKS access-control reader tool",
		Long: `aksctl talks to a single AKS card reader over TCP or a serial line.
Use --tcp host:port or --serial /dev/ttyUSB0 to select the reader.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(rootCmd)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newReadCardCmd(opts))
	rootCmd.AddCommand(newClockCmd(opts))
	rootCmd.AddCommand(newRawCmd(opts))
	rootCmd.AddCommand(newCountCmd(opts))
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aksctl version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
		},
	}
}

func main() {
	if err := newRootCmd(&connOptions{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
