package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	devenv "cryptoscout/dev/env"
	"cryptoscout/internal/store"
	"cryptoscout/lib/chrono"
	configlibsql "cryptoscout/lib/configutil/libsql"
)

const (
	headlessShellImage = "chromedp/headless-shell:latest"
	headlessShellName  = "cryptoscout-headless-shell"
)

func wipeState(context.Context) error {
	dir, err := devenv.ResolvePath("<dev_state>")
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func createDirs(context.Context) error {
	for _, dir := range []string{"cache", "out", "resty"} {
		path, err := devenv.ResolvePath(filepath.Join("<dev_state>", dir))
		if err != nil {
			return err
		}
		err = os.MkdirAll(path, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}

// createRunDB opens (creating if needed) the sqlite file the default config
// points at and applies the store schema to it.
func createRunDB(ctx context.Context) error {
	database, err := configlibsql.Struct{File: "<dev_state>/cryptoscout.db"}.OpenDB()
	if err != nil {
		return err
	}
	defer database.Close()
	_, err = store.New(ctx, database, chrono.NewStandardImpl())
	return err
}

func startHeadlessShell(ctx context.Context) error {
	args := []string{
		"run", "-d", "--rm",
		"--name", headlessShellName,
		"-p", "9222:9222",
		headlessShellImage,
	}
	fmt.Printf("$ docker %s\n", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
