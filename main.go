package main

import "github.com/schooltrack/attendapi/cmd"

func main() {
	cmd.Execute()
}
