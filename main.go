package main

import "github.com/pthm-cable/heatshock/cli"

func main() {
	cli.Execute()
}
