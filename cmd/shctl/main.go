// Command shctl is the command-line popup of study-helper: it reads
// storage stats and settings, runs cleanups, looks words up and
// annotates saved HTML pages through a running server.
package main

import "github.com/heartmarshall/study-helper/internal/cli"

func main() {
	cli.Execute()
}
