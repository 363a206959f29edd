// rolodex: a local contact store that merges contacts from many sources.
//
// Usage:
//
//	rolodex import gmail.jsonc --observations
//	rolodex merged
//	rolodex serve
package main

import (
	"context"
	"os"

	"github.com/roach88/rolodex/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
