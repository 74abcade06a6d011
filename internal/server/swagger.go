package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Webscrape API
// @version 1.0
// @description Fetches a web page and returns its readable text, with batch scrape jobs, a scrape cache, a Bedrock agent action adapter and a model inference proxy.
// @contact.name Webscrape Maintainers
// @contact.url https://github.com/raysh454/webscrape
// @BasePath /
