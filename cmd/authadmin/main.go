package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/admin"
)

func main() {

	cfg, ids, err := admin.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app := admin.NewApp(cfg, os.Stdin, os.Stdout)
	if err := app.Run(context.Background(), ids); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

}
