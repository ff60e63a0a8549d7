package main

import "github.com/ftl/nbrx/cmd"

func main() {
	cmd.Execute()
}
