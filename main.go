// Package main is the entry point for the perfsieve CLI.
package main

import "perfsieve.dev/pkg/perfsieve/cmd"

func main() {
	cmd.Execute()
}
