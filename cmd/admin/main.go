package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"focusfire.ai/internal/persistence/turnlog"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "files":
			filesCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	games, err := listGames(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, g := range games {
		fmt.Println(g)
	}
}

func listGames(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dataDir, "games"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func filesCmd(args []string) {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "", "game id")
	_ = fs.Parse(args)

	if *gameID == "" {
		fmt.Fprintln(os.Stderr, "missing -game")
		os.Exit(2)
	}
	files, err := turnlog.ListFiles(turnlog.Dir(*dataDir, *gameID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, f := range files {
		st, err := os.Stat(f)
		if err != nil {
			fmt.Fprintln(os.Stderr, "stat:", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%d\n", filepath.Base(f), st.Size())
	}
}
