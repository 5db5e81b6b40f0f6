package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/alexdcox/cardano-contracts/cmd/shared"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var log = Log()

const usage = "Usage: withdraw <deposit-tx-hash>"

func printDeposits(w io.Writer, deposits []DepositRecord) {
	if len(deposits) == 0 {
		fmt.Fprintln(w, "No pending deposits recorded.")
		return
	}
	for _, d := range deposits {
		state := "locked"
		if !time.Now().Before(time.UnixMilli(d.LockUntil)) {
			state = "unlocked"
		}
		fmt.Fprintf(w, "%s  %s ADA  %s until %s  beneficiary %s\n",
			d.TxHash,
			formatAda(d.Lovelace),
			state,
			time.UnixMilli(d.LockUntil).UTC().Format(time.RFC3339),
			d.Beneficiary)
	}
}

func formatAda(lovelace uint64) string {
	return fmt.Sprintf("%d.%06d", lovelace/LovelacePerAda, lovelace%LovelacePerAda)
}

func withdraw(c *cli.Context) (err error) {
	txHash := strings.TrimSpace(c.Args().First())
	if txHash == "" && !c.Bool("list") {
		return cli.Exit(usage, 1)
	}

	env, err := shared.NewEnv(c)
	if err != nil {
		return
	}
	defer env.Close()

	if c.Bool("list") {
		deposits, err := env.Db.ListDeposits(true)
		if err != nil {
			return err
		}
		printDeposits(os.Stdout, deposits)
		return nil
	}

	builder, err := env.Wallet(c.String("secret-file"), "BENEFICIARY_ROOT_KEY")
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

	fmt.Println("Looking up UTxO from deposit transaction...")
	utxo, err := contract.GetUtxoByTxHash(c.Context, txHash)
	if errors.Is(err, ErrUtxoNotFound) {
		return errors.Errorf("UTxO not found for transaction hash: %s", txHash)
	}
	if err != nil {
		return
	}

	fmt.Println("Constructing withdrawal transaction...")

	wallet, err := env.WalletInfo(c.Context, builder)
	if err != nil {
		return
	}

	plan, err := contract.WithdrawFund(wallet, utxo)
	if err != nil {
		return
	}

	withdrawalHash, err := env.Submit(c.Context, builder, plan)
	if withdrawalHash == "" {
		return
	}

	if markErr := env.Db.MarkDepositWithdrawn(txHash, withdrawalHash); markErr != nil && !errors.Is(markErr, ErrRecordNotFound) {
		log.Warn().Msgf("failed to update deposit record: %+v", markErr)
	}

	shared.PrintSubmitted(os.Stdout, "Withdrawal", withdrawalHash, err)
	return
}

func main() {
	shared.Run(&cli.App{
		Name:      "withdraw",
		Usage:     "unlock funds from the vesting contract",
		ArgsUsage: "<deposit-tx-hash>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret-file", Value: "beneficiary.sk", Usage: "Beneficiary wallet secret, falls back to BENEFICIARY_ROOT_KEY"},
			&cli.BoolFlag{Name: "list", Usage: "List recorded deposits that have not been withdrawn"},
		},
		Action: withdraw,
	})
}
