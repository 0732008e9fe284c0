// Command wanderplan is the trip planner's command-line front end.
package main

import (
	"os"

	"github.com/TomasRacil/WanderPlan-sub000/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
