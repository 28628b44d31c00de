package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "contactctl",
		Short: "Fill in and validate the contact form from a terminal",
		Long: `contactctl drives the contact form reducer without a browser.

  tui    interactive form rendered in the terminal
  check  apply one submission from flags and print the resulting state`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "contactctl version %s\n" .Version}}`)
	root.AddCommand(newTUICmd())
	root.AddCommand(newCheckCmd())
	return root
}
