package main

import "github.com/okian/epiclock/internal/cli"

func main() {
	cli.Execute()
}
