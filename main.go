package main

import (
	"github.com/zerosync-co/ghosttext/cmd"
	"github.com/zerosync-co/ghosttext/internal/logging"
)

func main() {
	defer logging.RecoverPanic("main", nil)

	cmd.Execute()
}
