package main

import (
	"github.com/snackline/backend/internal/app"
	"github.com/snackline/backend/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
