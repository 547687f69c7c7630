package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/ArifBabayev05/backlify-client/internal/relation"
)

func cmdTables(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: backlify tables <list|get|create|update|delete> <table> ...")
		os.Exit(1)
	}

	app := mustApp()
	defer app.Close()
	ctx := context.Background()

	op, table := args[0], args[1]
	rest := args[2:]

	switch op {
	case "list":
		page, limit := 1, 20
		if len(rest) > 0 {
			page = atoiOrDie(rest[0], "page")
		}
		if len(rest) > 1 {
			limit = atoiOrDie(rest[1], "limit")
		}
		result, err := app.exec.List(ctx, table, page, limit)
		if err != nil {
			die(err)
		}
		printJSON(result.Rows)
		if p := result.Pagination; p != nil {
			fmt.Fprintf(os.Stderr, "page %d of %d rows (limit %d)\n", p.Page, p.Total, p.Limit)
		}

	case "get":
		if len(rest) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: backlify tables get <table> <id>")
			os.Exit(1)
		}
		row, err := app.exec.Get(ctx, table, rest[0])
		if err != nil {
			die(err)
		}
		printJSON(row)

	case "create":
		values := parseValues(rest, "create")
		row, err := app.exec.Create(ctx, table, values)
		if err != nil {
			die(err)
		}
		printJSON(row)

	case "update":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: backlify tables update <table> <id> '<json>'")
			os.Exit(1)
		}
		values := parseValues(rest[1:], "update")
		row, err := app.exec.Update(ctx, table, rest[0], values)
		if err != nil {
			die(err)
		}
		printJSON(row)

	case "delete":
		if len(rest) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: backlify tables delete <table> <id>")
			os.Exit(1)
		}
		if err := app.exec.Delete(ctx, table, rest[0]); err != nil {
			die(err)
		}
		fmt.Printf("Deleted %s/%s\n", table, rest[0])

	default:
		fmt.Fprintf(os.Stderr, "unknown tables command: %s\n", op)
		os.Exit(1)
	}
}

func cmdDescribe(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: backlify describe <table>")
		os.Exit(1)
	}

	app := mustApp()
	defer app.Close()

	table := args[0]
	s, err := app.schemas.Resolve(context.Background(), table)
	if err != nil {
		die(err)
	}

	fmt.Printf("%s (source: %s)\n", s.Table, s.Source)

	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := s.Fields[name]
		flags := ""
		if spec.Primary {
			flags += " primary"
		}
		if spec.Required {
			flags += " required"
		}
		line := fmt.Sprintf("  %-20s %s%s", name, spec.Type, flags)
		if target, ok := app.relations.Target(table, name); ok {
			line += fmt.Sprintf(" -> %s", target)
		}
		fmt.Println(line)
	}

	printRelatedSamples(app, table, names)
}

// printRelatedSamples shows a few labeled rows for each foreign key, so
// a caller can see what ids are available to reference.
func printRelatedSamples(app *app, table string, names []string) {
	ctx := context.Background()
	for _, name := range names {
		target, ok := app.relations.Target(table, name)
		if !ok {
			continue
		}
		rows := app.relations.LoadRelated(ctx, target)
		if len(rows) == 0 {
			continue
		}
		fmt.Printf("\n%s (%d rows):\n", target, len(rows))
		for i, row := range rows {
			if i == 5 {
				fmt.Println("  ...")
				break
			}
			fmt.Printf("  %v: %s\n", row["id"], relation.LabelFor(row, target))
		}
	}
}

func parseValues(args []string, op string) map[string]any {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: backlify tables %s <table> '<json>'\n", op)
		os.Exit(1)
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(args[0]), &values); err != nil {
		fmt.Fprintf(os.Stderr, "invalid JSON payload: %v\n", err)
		os.Exit(1)
	}
	return values
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		die(err)
	}
	fmt.Println(string(out))
}

func atoiOrDie(s, name string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s: %q\n", name, s)
		os.Exit(1)
	}
	return n
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
