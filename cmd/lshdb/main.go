// Command lshdb builds and queries LSH vector databases from the shell.
//
//	lshdb build --config db.yaml --input vectors.txt
//	lshdb query --path .vdb --beam 10 --min-sim 0.8 -- 4 0 -7 12
//	lshdb info --path .vdb
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
