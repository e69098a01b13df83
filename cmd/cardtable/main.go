package main

import "github.com/mcoot/cardtable/internal/cli"

func main() {
	cli.Execute()
}
