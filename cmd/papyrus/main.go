// Command papyrus is the CLI boundary service of spec §1/§6: it selects an
// entry script and an output mode, and otherwise defers entirely to the
// core (token/lexer → ast/parser → sema → ir → vm) and to encode for image
// bytes. Grounded on the teacher's hand-rolled main/main.go switch,
// replaced with github.com/spf13/cobra per SPEC_FULL.md's ambient stack
// (the CLI library papapumpkin-quasar's cmd/root.go uses).
package main

import "os"

var rootCmd = newRootCmd()

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
