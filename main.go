package main

import "media-analyzer/cmd"

func main() {
	cmd.Execute()
}
