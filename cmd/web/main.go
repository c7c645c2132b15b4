package main

import "schoolpay_backend/internal/app"

func main() {
	app.Run()
}
