package main

import (
	"hashfarm/internal/server"
)

func main() {
	server.ConfigLoad()
	go server.PayoutInit()
	server.ApiInit()
}
