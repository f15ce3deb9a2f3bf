package cli

import (
	"bufio"
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if sess := a.Session(); sess != nil {
		s = sess.User.Email + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive session: it starts the connectivity watcher,
// drops cache rows past retention, asks for credentials and then serves
// commands until the user exits.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to CircleUp CLI (type 'help' for commands)")

	go a.watcher.Run(ctx)

	if _, err := a.postService.PurgeStaleCache(ctx); err != nil {
		a.logger.Warn(ctx, "stale cache purge failed", "error", err)
	}

	if err := a.Login(ctx); err != nil {
		printlnFn("Error:", err.Error())
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
