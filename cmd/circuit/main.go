package main

import "github.com/dd0wney/cluso-circuit/cmd/circuit/cmd"

func main() {
	cmd.Execute()
}
