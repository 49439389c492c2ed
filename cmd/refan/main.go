package main

import "refan/cmd/refan/cmd"

func main() {
	cmd.Execute()
}
