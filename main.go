package main

import (
	"harmonyhub/cmd"
)

func main() {
	cmd.Execute()
}
