package main

import "github.com/sfwcore/herobot/cmd"

func main() {
	cmd.Execute()
}
