package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
)

type step struct {
	name string
	run  func(ctx context.Context) error
}

func main() {
	recreate := flag.Bool("recreate", false, "wipe dev/.state before setting it up again")
	browser := flag.Bool("browser", false, "start a headless-shell container on localhost:9222")
	flag.Parse()

	if _, err := os.Stat("go.mod"); err != nil {
		slog.Error("run the dev setup from the repository root, next to go.mod", "err", err)
		os.Exit(1)
	}

	steps := []step{}
	if *recreate {
		steps = append(steps, step{name: "wipe state", run: wipeState})
	}
	steps = append(steps,
		step{name: "state dirs", run: createDirs},
		step{name: "run database", run: createRunDB},
	)
	if *browser {
		steps = append(steps, step{name: "headless shell", run: startHeadlessShell})
	}

	ctx := context.Background()
	for _, s := range steps {
		slog.Info("setup", "step", s.name)
		if err := s.run(ctx); err != nil {
			slog.Error("setup failed", "step", s.name, "err", err)
			os.Exit(1)
		}
	}

	fmt.Println("dev environment ready, tests needing docker or a browser are skipped under -short.")
}
