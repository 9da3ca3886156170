package main

import "github.com/pfrederiksen/tarkov-market/internal/cli"

func main() {
	cli.Execute()
}
