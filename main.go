// Package main is the entry point for the github-issue-stats CLI.
package main

import "github.com/naka-gawa/github-issue-stats/cmd"

func main() {
	cmd.Execute()
}
