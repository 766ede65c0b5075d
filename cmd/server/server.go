package main

import (
	"flag"
	"net/http"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/santorini/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	cfgPath := flag.String("config", "", "yaml config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	log.SetLevel(level)

	gameServer, err := server.NewGameServer(cfg)
	if err != nil {
		log.Fatalf("layout: %v", err)
	}
	s := Server{GameServer: gameServer}
	go s.GameServer.Loop()
	s.routes()
	log.Infof("listening on port %s, %d players per game", cfg.Port, cfg.Players)
	log.Fatalln(http.ListenAndServe(":"+cfg.Port, s.router))
}
