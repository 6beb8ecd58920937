package main

import "skimmer/cmd"

func main() {
	cmd.Execute()
}
