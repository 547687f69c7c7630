package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func cmdLogin(args []string) {
	app := mustApp()
	defer app.Close()

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Username: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading username: %v\n", err)
			os.Exit(1)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		fmt.Fprintln(os.Stderr, "username is required")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading password: %v\n", err)
		os.Exit(1)
	}

	if err := app.client.Login(context.Background(), username, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logged in as %s\n", app.session.Identity())
}

func cmdLogout() {
	app := mustApp()
	defer app.Close()

	if err := app.client.Logout(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "logout failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Logged out")
}

func cmdWhoami() {
	app := mustApp()
	defer app.Close()

	if !app.session.IsActive() {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("Identity: %s\n", app.session.Identity())
	if plan := app.session.Plan(); plan != "" {
		fmt.Printf("Plan:     %s\n", plan)
	}
}
