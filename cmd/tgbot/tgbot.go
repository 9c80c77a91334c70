package main

import (
	"context"

	"github.com/DenisKhanov/CitySupport/internal/app/tbot"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()
	a, err := tbot.NewApp(ctx)
	if err != nil {
		logrus.Fatalf("failed to init app: %s", err.Error())
	}
	if err = a.Run(ctx); err != nil {
		logrus.Fatalf("bot stopped with error: %s", err.Error())
	}
}
