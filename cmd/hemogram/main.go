package main

import "github.com/analisavet/hemogram-server/internal/cli"

func main() {
	cli.Execute()
}
