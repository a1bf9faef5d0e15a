package main

import (
	"fmt"
	"os"

	zaguancmder "github.com/zaguanai/zaguan-go/cmd/zaguan"
	"github.com/zaguanai/zaguan-go/pkg/cliui"
)

func main() {
	cmd := zaguancmder.NewZaguanCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cliui.FormatError(err))
		os.Exit(1)
	}
}
