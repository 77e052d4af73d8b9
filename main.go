package main

import (
	"log"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

//go:generate swag init --parseDependency -g main.go -o docs

// @title                       Library API
// @version                     1.0.0
// @description                 API for managing a library of books.
// @BasePath                    /
// @securityDefinitions.apikey  APIKeyHeader
// @in                          header
// @name                        X-API-Key
// @description                 API key required for authentication
func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
