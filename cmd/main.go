package main

import (
	cmd "github.com/guloader/guloader/cmd/guloader"
)

func main() {
	cmd.Execute()
}
