package main

import "github.com/charliek/tailhub/internal/cli"

func main() {
	cli.Execute()
}
