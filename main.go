package main

import "github.com/graphseal/graphseal/cmd"

func main() {
	cmd.Execute()
}
