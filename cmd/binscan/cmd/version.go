package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the binscan CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("binscan version %s\n", version)
		fmt.Println("Binary-options signal scanner for FX majors")
		fmt.Println("https://github.com/rustyeddy/binscan")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
