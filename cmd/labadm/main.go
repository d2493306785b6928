package main

import (
	"github.com/careloop-org/labresults/cmd/labadm/command"
)

func main() {
	command.Execute()
}
