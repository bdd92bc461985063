package main

import "github.com/simivar/stnh-techtree-exporter/src/cmd"

func main() {
	cmd.Execute()
}
