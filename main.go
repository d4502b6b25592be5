package main

import "protpred/cmd"

func main() {
	cmd.Execute()
}
