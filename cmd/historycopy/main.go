// Command historycopy merges stored renders from one history database into
// another.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/stevecastle/asciistereo/history"
)

func main() {
	var (
		srcPath    string
		dstPath    string
		origin     string
		onConflict string
		dryRun     bool
		verbose    bool
	)

	flag.StringVar(&srcPath, "source", "", "Path to source history DB")
	flag.StringVar(&dstPath, "dest", "", "Path to destination history DB")
	flag.StringVar(&origin, "origin", "", "Only copy renders from this origin: cli | http")
	flag.StringVar(&onConflict, "on-conflict", "ignore", "Conflict behavior: ignore | abort | replace | rollback | fail")
	flag.BoolVar(&dryRun, "dry-run", false, "Show what would happen without writing")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if srcPath == "" || dstPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -source <src.db> -dest <dest.db> [-origin cli|http] [-on-conflict ignore|abort|replace|rollback|fail] [-dry-run] [-v]\n", os.Args[0])
		os.Exit(2)
	}
	if origin != "" && origin != history.OriginCLI && origin != history.OriginHTTP {
		fmt.Fprintf(os.Stderr, "invalid -origin %q; use cli or http\n", origin)
		os.Exit(2)
	}
	if !verbose {
		history.SetLogger(nil)
	}

	n, err := history.Copy(context.Background(), srcPath, dstPath, history.CopyOptions{
		Origin:     origin,
		OnConflict: onConflict,
		DryRun:     dryRun,
	})
	if err != nil {
		log.Fatalf("copy: %v", err)
	}

	switch {
	case dryRun:
		log.Printf("Dry run: %d render(s) would be copied. No changes written.", n)
	case verbose:
		log.Printf("Inserted %d render(s) into %s (conflict=%s).", n, dstPath, onConflict)
	default:
		fmt.Printf("Done. Inserted %d render(s).\n", n)
	}
}
