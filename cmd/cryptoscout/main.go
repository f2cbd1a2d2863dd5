package main

import (
	"cryptoscout/cmd/cryptoscout/commands"
	"cryptoscout/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
