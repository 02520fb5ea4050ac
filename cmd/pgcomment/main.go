package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "dump":
		err = runDump()
	case "restore":
		err = runRestore()
	case "configure":
		err = runConfigure()
	case "doctor":
		err = runDoctor()
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("pgcomment: PostgreSQL table, view and column comments")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pgcomment serve                              Start the MCP server")
	fmt.Println("  pgcomment dump -table NAME [-schema S]       Print an entity's comments as JSON")
	fmt.Println("  pgcomment restore -table NAME [-schema S]    Apply a JSON comment snapshot from stdin or -in")
	fmt.Println("  pgcomment configure                          Run interactive configuration wizard")
	fmt.Println("  pgcomment doctor                             Validate config and print agent snippets")
	fmt.Println("  pgcomment --help                             Show this help message")
}
