package main

import "github.com/civicworks/revenue-tracker/cmd"

func main() {
	cmd.Execute()
}
