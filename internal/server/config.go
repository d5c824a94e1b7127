package server

import (
	"encoding/json"
	"os"
)

type Config struct {
	WorkerSpeed int    `json:"workerSpeed"`
	WorkerQueue int    `json:"workerQueue"`
	TickSeconds uint   `json:"tickSeconds"`
	FileLog     string `json:"fileLog"`
	Port        string `json:"port"`
}

var GlobalConfig Config
var PathFile string

func ConfigLoad() {
	var err error

	if len(os.Args) > 1 {
		PathFile = os.Args[1]
	} else {
		PathFile = "./config.json"
	}

	configFile, err := os.Open(PathFile)
	defer configFile.Close()
	if err != nil {
		panic(err)
	}
	jsonParser := json.NewDecoder(configFile)
	jsonParser.Decode(&GlobalConfig)

	if GlobalConfig.WorkerSpeed < 1 {
		GlobalConfig.WorkerSpeed = 8
	}
	if GlobalConfig.WorkerQueue < 1 {
		GlobalConfig.WorkerQueue = 64
	}
	if GlobalConfig.Port == "" {
		GlobalConfig.Port = "8000"
	}

	SetLogger(GlobalConfig.FileLog)
}
