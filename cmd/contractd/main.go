package main

import (
	"os"
	"os/signal"
	"syscall"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/alexdcox/cardano-contracts/cmd/shared"
	"github.com/urfave/cli/v2"
)

var log = Log()

func serve(c *cli.Context) (err error) {
	env, err := shared.NewEnv(c)
	if err != nil {
		return
	}
	defer env.Close()

	vestingBlueprint, err := LoadBlueprint(env.Config.VestingBlueprint)
	if err != nil {
		return
	}
	vesting, err := NewVestingContract(vestingBlueprint, env.Config.Network, env.Chain)
	if err != nil {
		return
	}

	var giftCard *GiftCardContract
	if giftCardBlueprint, loadErr := LoadBlueprint(env.Config.GiftCardBlueprint); loadErr != nil {
		log.Warn().Msgf("gift card endpoints disabled: %v", loadErr)
	} else if giftCard, err = NewGiftCardContract(giftCardBlueprint, env.Config.Network, env.Chain); err != nil {
		return
	}

	server := NewHttpServer(c.String("hostport"), env.Config.Network, env.Chain, env.Db, vesting, giftCard)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Msgf("%+v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("caught interrupt/terminate signal, attempting graceful shutdown...")

	if err = server.Stop(); err != nil {
		return
	}

	log.Info().Msg("graceful shutdown complete")
	return
}

func main() {
	shared.Run(&cli.App{
		Name:  "contractd",
		Usage: "read only http service for the vesting and gift card contracts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "hostport", Value: "localhost:3002", Usage: "Set host:port for the http listener", EnvVars: []string{"CONTRACTD_HOSTPORT"}},
		},
		Action: serve,
	})
}
