package main

import (
	"github.com/careloop-org/labresults/api"
)

func main() {
	api.MainLoop()
}
