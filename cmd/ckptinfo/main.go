// ckptinfo prints a checkpoint file's header and verifies its digest.
//
// Usage: ckptinfo <file.ckpt> [...]
package main

import (
	"fmt"
	"os"

	"github.com/emberfem/ember/internal/checkpoint"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ckptinfo <file.ckpt> [...]")
		os.Exit(2)
	}

	failed := false
	for _, path := range os.Args[1:] {
		hdr, digest, err := checkpoint.Inspect(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("%s\n", path)
		fmt.Printf("  version: %d\n", hdr.Version)
		fmt.Printf("  step:    %d\n", hdr.Step)
		fmt.Printf("  streams: %d\n", hdr.Streams)
		fmt.Printf("  digest:  %s (verified)\n", digest)
	}
	if failed {
		os.Exit(1)
	}
}
