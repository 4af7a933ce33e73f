package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/guardian/cmd/guardian/app"
)

func main() {
	app.NewApp().Run()
}
