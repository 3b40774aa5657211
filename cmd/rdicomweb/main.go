// Command rdicomweb runs the DICOMweb QIDO-RS/STOW-RS server over a
// directory of DICOM Part 10 files plus a relational index.
package main

import (
	"context"
	"fmt"
	"os"

	"rdicomweb/cmd/rdicomweb/cmd"
)

var gitsha = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cmd.NewRoot(ctx, gitsha).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
