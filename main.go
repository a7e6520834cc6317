package main

import "github.com/tanq16/bfsp/cmd"

func main() {
	cmd.Execute()
}
