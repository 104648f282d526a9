package main

import (
	"github.com/labi1240/amazon-shifts-bot/internal/cli"
)

func main() {
	cli.Execute()
}
