package app

const (
	Name           = "connectgo"
	ConfigFilename = "config.json"
	DBFilename     = "app.db"
	LogFilename    = "connectgo.log"
)
