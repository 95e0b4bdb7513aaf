// Command strata is the CLI entry point for the snapshot engine.
package main

import "github.com/dirstrata/strata/cli"

func main() {
	cli.Execute()
}
