package shared

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/alexdcox/cardano-contracts/blockfrost"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var log = Log()

const waitTimeout = 10 * time.Minute

// Flags common to every command.
var Flags = []cli.Flag{
	&cli.StringFlag{Name: "network", Value: string(NetworkMainNet), Usage: "mainnet|preprod|preview", EnvVars: []string{"CARDANO_NETWORK"}},
	&cli.StringFlag{Name: "blockfrost-url", Usage: "Blockfrost api base url (default: derived from network)", EnvVars: []string{"BLOCKFROST_URL"}},
	&cli.StringFlag{Name: "blockfrost-project-id", Usage: "Blockfrost project id", EnvVars: []string{"BLOCKFROST_API_KEY"}},
	&cli.StringFlag{Name: "vesting-blueprint", Value: DefaultVestingBlueprint, Usage: "Path to the vesting plutus.json", EnvVars: []string{"VESTING_BLUEPRINT"}},
	&cli.StringFlag{Name: "giftcard-blueprint", Value: DefaultGiftCardBlueprint, Usage: "Path to the gift card plutus.json", EnvVars: []string{"GIFTCARD_BLUEPRINT"}},
	&cli.StringFlag{Name: "databasepath", Value: DefaultDatabasePath, Usage: "Path to the sqlite records database", EnvVars: []string{"CARDANO_DATABASE_PATH"}},
	&cli.StringFlag{Name: "node-socket", Usage: "Submit through a local cardano-node socket instead of Blockfrost", EnvVars: []string{"CARDANO_NODE_SOCKET_PATH"}},
	&cli.StringFlag{Name: "loglevel", Value: "info", Usage: "trace|debug|info|warn|error|fatal", EnvVars: []string{"CARDANO_LOG_LEVEL"}},
	&cli.BoolFlag{Name: "wait", Usage: "Wait until the submitted transaction is on chain"},
}

// LoadEnv loads .env from the working directory when present.
func LoadEnv() {
	if !FileExists(".env") {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Warn().Msgf("failed to load .env: %v", err)
	}
}

func LoadConfig(c *cli.Context) (config *Config, err error) {
	config = &Config{
		Network:             Network(c.String("network")),
		BlockfrostUrl:       c.String("blockfrost-url"),
		BlockfrostProjectId: c.String("blockfrost-project-id"),
		VestingBlueprint:    c.String("vesting-blueprint"),
		GiftCardBlueprint:   c.String("giftcard-blueprint"),
		DatabasePath:        c.String("databasepath"),
		NodeSocket:          c.String("node-socket"),
		LogLevel:            c.String("loglevel"),
		Wait:                c.Bool("wait"),
	}

	if err = SetLogLevel(config.LogLevel); err != nil {
		return
	}
	if err = config.Validate(); err != nil {
		return
	}

	log.Debug().Msgf("network: %s, blockfrost: %s", config.Network, config.BlockfrostUrl)
	return
}

// Env bundles the collaborators a command needs.
type Env struct {
	Config    *Config
	Chain     *blockfrost.Client
	Submitter TxSubmitter
	Db        Database
}

func NewEnv(c *cli.Context) (env *Env, err error) {
	config, err := LoadConfig(c)
	if err != nil {
		return
	}

	chain, err := blockfrost.NewClient(config)
	if err != nil {
		return
	}

	env = &Env{Config: config, Chain: chain, Submitter: chain}

	if config.NodeSocket != "" {
		if env.Submitter, err = NewNodeSubmitter(config.NodeSocket, config.Network); err != nil {
			return
		}
		log.Info().Msgf("submitting through node socket %s", config.NodeSocket)
	}

	env.Db, err = NewSqlLiteDatabase(config.DatabasePath)
	return
}

func (e *Env) Close() {
	if e.Db != nil {
		_ = e.Db.Close()
	}
}

// Wallet loads a wallet secret from file then environment and returns a
// builder signing with it.
func (e *Env) Wallet(file, envVar string) (builder TxBuilder, err error) {
	secret, err := LoadSecret(file, envVar)
	if err != nil {
		return
	}
	wallet, err := ParseWalletSecret(secret)
	if err != nil {
		return
	}
	return NewApolloBuilder(e.Config, wallet)
}

func (e *Env) WalletInfo(ctx context.Context, builder TxBuilder) (WalletInfo, error) {
	return GetWalletInfo(ctx, e.Chain, builder.WalletAddress())
}

// Submit builds, signs and submits plan, optionally waiting for inclusion.
func (e *Env) Submit(ctx context.Context, builder TxBuilder, plan *TxPlan) (txHash string, err error) {
	if planJson, err := plan.MarshalJSON(); err == nil {
		log.Debug().Msgf("transaction plan: %s", planJson)
	}

	signed, err := builder.Build(ctx, plan)
	if err != nil {
		return
	}

	if txHash, err = e.Submitter.SubmitTx(ctx, signed.Cbor); err != nil {
		return
	}
	if txHash != signed.Hash {
		log.Warn().Msgf("submitted hash %s differs from computed hash %s", txHash, signed.Hash)
	}

	if e.Config.Wait {
		waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
		defer cancel()
		if err = e.Chain.WaitForTx(waitCtx, txHash); err != nil {
			err = errors.Wrapf(err, "transaction %s submitted but not yet confirmed", txHash)
		}
	}
	return
}

// PrintSubmitted reports a submitted transaction. A non nil waitErr means the
// transaction was accepted but not seen on chain before the wait ended.
func PrintSubmitted(w io.Writer, kind, txHash string, waitErr error) {
	if waitErr != nil {
		fmt.Fprintf(w, "%s transaction submitted but not confirmed: %s\n", kind, txHash)
		return
	}
	fmt.Fprintf(w, "%s transaction submitted successfully: %s\n", kind, txHash)
}

// Run executes app, printing any error and exiting non-zero on failure.
func Run(app *cli.App) {
	LoadEnv()
	app.Flags = append(Flags, app.Flags...)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debug().Msgf("%+v", err)
		if trace := StackTracerMessage(err); trace != "" {
			log.Trace().Msg(trace)
		}
		os.Exit(1)
	}
}
