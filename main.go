package main

import (
	"os"

	"geosat/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
