package main

import "conciliacao/config"

func main() {
	config.InitApp()
	app := config.SetupApp()
	config.StartServer(app)
}
