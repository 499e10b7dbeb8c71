package main

import "github.com/ledgerline/finance-services/cmd"

func main() {
	cmd.Execute()
}
