package main

import "github.com/kiesman99/ninegrid/cmd"

func main() {
	cmd.Execute()
}
