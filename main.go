package main

import (
	"os"

	"github.com/shiftdesk/shiftdesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
