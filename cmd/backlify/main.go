package main

import (
	"fmt"
	"os"

	"github.com/ArifBabayev05/backlify-client/internal/config"
	"github.com/ArifBabayev05/backlify-client/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "login":
		cmdLogin(os.Args[2:])
	case "logout":
		cmdLogout()
	case "whoami":
		cmdWhoami()
	case "tables":
		cmdTables(os.Args[2:])
	case "describe":
		cmdDescribe(os.Args[2:])
	case "init-config":
		cmdInitConfig()
	case "version":
		fmt.Println(version.String())
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func cmdInitConfig() {
	if err := config.InitConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "error generating config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", config.ConfigFilePath())
}

func printUsage() {
	fmt.Println(`Usage: backlify <command> [options]

Commands:
  login [username]   Authenticate and store the session
  logout             Clear the session locally and server-side
  whoami             Show the current identity and plan
  tables             Table operations (list|get|create|update|delete)
  describe <table>   Show the resolved schema for a table
  init-config        Generate default config file
  version            Print version information
  help               Show this help message

Table operations:
  tables list <table> [page] [limit]
  tables get <table> <id>
  tables create <table> '<json>'
  tables update <table> <id> '<json>'
  tables delete <table> <id>`)
}
