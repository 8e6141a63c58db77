package main

import (
	"github.com/jitsucom/crashnative/cmd"
)

func main() {
	cmd.Execute()
}
