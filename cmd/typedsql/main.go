package main

import (
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/typedsql/cmd/typedsql/commands"
	"github.com/satishbabariya/typedsql/internal/ui"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
