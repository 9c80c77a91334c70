package main

import (
	"context"

	"github.com/DenisKhanov/CitySupport/internal/app/server"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()
	a, err := server.NewApp(ctx)
	if err != nil {
		logrus.Fatalf("failed to init app: %s", err.Error())
	}
	if err = a.Run(ctx); err != nil {
		logrus.Fatalf("server stopped with error: %s", err.Error())
	}
}
