package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "papyrus",
		Short: "Compile and run Papyrus procedural-drawing scripts",
		Long: "Papyrus compiles a .pprs script, executes it on the register VM, and " +
			"writes one image per save_canvas() call in source order.",
	}
	root.AddCommand(newRunCmd())
	return root
}
