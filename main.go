package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"supplishare/api"
)

func main() {
	args := ParseArgs()
	if !args.Validate() {
		panic("missing arguments")
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: args.Level()})))

	server, err := api.NewServer(args.ServerConfig)
	if err != nil {
		panic(err)
	}
	server.Start()
	defer server.Close()

	router := gin.Default()
	server.RegisterRoutes(router, args.EnablePprof)
	if err := router.Run(args.ServerURL); err != nil {
		slog.Error("Server stopped", slog.Any("error", err))
	}
}
