package main

import "github.com/clearjav/torrentmeta/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
