package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Feed(ctx context.Context) error
	More(ctx context.Context) error
	Search(ctx context.Context, query string) error
	ClearSearch(ctx context.Context) error
	Show(ctx context.Context, arg string) error
	Favorite(ctx context.Context, arg string) error
	Favorites(ctx context.Context) error
	Unfavorite(ctx context.Context, arg string) error
	Refresh(ctx context.Context) error
	Purge(ctx context.Context) error
	Profile(ctx context.Context) error
	Upload(ctx context.Context, path string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: feed, more, search <text>, clear, show <id>, fav <id>, favorites, unfav <id>, refresh, purge, profile, upload <path>, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the CircleUp CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The rest of the line is the
// command's argument. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("circleup %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, arg); err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd, arg string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpLoggedIn)
		} else {
			printlnFn(helpLoggedOut)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn() {
		if isKnown(cmd) {
			printlnFn("Please login first")
		} else {
			printlnFn("Unknown command:", cmd)
		}
		return nil
	}

	switch cmd {
	case "feed", "f":
		return a.Feed(ctx)
	case "more", "m":
		return a.More(ctx)
	case "search", "s":
		if arg == "" {
			printlnFn("Usage: search <text>")
			return nil
		}
		return a.Search(ctx, arg)
	case "clear":
		return a.ClearSearch(ctx)
	case "show":
		return a.Show(ctx, arg)
	case "fav":
		return a.Favorite(ctx, arg)
	case "favorites", "favs":
		return a.Favorites(ctx)
	case "unfav":
		return a.Unfavorite(ctx, arg)
	case "refresh":
		return a.Refresh(ctx)
	case "purge":
		return a.Purge(ctx)
	case "profile":
		return a.Profile(ctx)
	case "upload":
		if arg == "" {
			printlnFn("Usage: upload <path>")
			return nil
		}
		return a.Upload(ctx, arg)
	case "logout":
		return a.Logout(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func isKnown(cmd string) bool {
	switch cmd {
	case "feed", "f", "more", "m", "search", "s", "clear", "show", "fav", "favorites", "favs",
		"unfav", "refresh", "purge", "profile", "upload", "logout":
		return true
	}
	return false
}
