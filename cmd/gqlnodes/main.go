package main

import "github.com/llehouerou/gqlnodes/internal/cli"

func main() {
	cli.Execute()
}
