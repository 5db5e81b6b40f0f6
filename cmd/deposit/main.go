package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/alexdcox/cardano-contracts/cmd/shared"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var log = Log()

const usage = "Usage: deposit <beneficiary-address> <amount-ada> <lock-seconds>"

type depositArgs struct {
	Beneficiary string
	Lovelace    uint64
	Lock        time.Duration
}

func parseArgs(args []string) (out depositArgs, err error) {
	if len(args) < 3 || args[0] == "" || args[1] == "" || args[2] == "" {
		err = cli.Exit(usage, 1)
		return
	}

	out.Beneficiary = strings.TrimSpace(args[0])
	if out.Lovelace, err = ParseAda(args[1]); err != nil {
		return
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(args[2]), 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		err = errors.Wrapf(ErrInvalidDuration, "got '%s'", args[2])
		return
	}
	out.Lock = time.Duration(seconds * float64(time.Second))
	return
}

func deposit(c *cli.Context) (err error) {
	args, err := parseArgs(c.Args().Slice())
	if err != nil {
		return
	}

	env, err := shared.NewEnv(c)
	if err != nil {
		return
	}
	defer env.Close()

	builder, err := env.Wallet(c.String("secret-file"), "OWNER_ROOT_KEY")
	if err != nil {
		return
	}

	blueprint, err := LoadBlueprint(env.Config.VestingBlueprint)
	if err != nil {
		return
	}
	contract, err := NewVestingContract(blueprint, env.Config.Network, env.Chain)
	if err != nil {
		return
	}

	fmt.Println("Constructing deposit transaction...")

	wallet, err := env.WalletInfo(c.Context, builder)
	if err != nil {
		return
	}

	lockUntil := time.Now().Add(args.Lock)
	plan, err := contract.DepositFund(wallet, LovelaceValue(args.Lovelace), lockUntil, args.Beneficiary)
	if err != nil {
		return
	}

	txHash, err := env.Submit(c.Context, builder, plan)
	if txHash == "" {
		return
	}

	scriptAddr, _ := contract.ScriptAddress()
	if recordErr := env.Db.AddDeposit(DepositRecord{
		TxHash:        txHash,
		Network:       env.Config.Network,
		ScriptAddress: scriptAddr.String(),
		Owner:         wallet.Address,
		Beneficiary:   args.Beneficiary,
		Lovelace:      args.Lovelace,
		LockUntil:     lockUntil.UnixMilli(),
	}); recordErr != nil {
		log.Warn().Msgf("failed to record deposit: %+v", recordErr)
	}

	shared.PrintSubmitted(os.Stdout, "Deposit", txHash, err)
	fmt.Println("Remember this transaction hash; it will be needed to withdraw the funds.")
	return
}

func main() {
	shared.Run(&cli.App{
		Name:      "deposit",
		Usage:     "lock funds in the vesting contract",
		ArgsUsage: "<beneficiary-address> <amount-ada> <lock-seconds>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret-file", Value: "owner.sk", Usage: "Owner wallet secret, falls back to OWNER_ROOT_KEY"},
		},
		Action: deposit,
	})
}
