package main

import (
	"fmt"
	"os"
	"strings"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/alexdcox/cardano-contracts/cmd/shared"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var log = Log()

var secretFlag = &cli.StringFlag{Name: "secret-file", Value: "wallet.sk", Usage: "Wallet secret, falls back to WALLET_ROOT_KEY"}

func loadContract(env *shared.Env) (*GiftCardContract, error) {
	blueprint, err := LoadBlueprint(env.Config.GiftCardBlueprint)
	if err != nil {
		return nil, err
	}
	return NewGiftCardContract(blueprint, env.Config.Network, env.Chain)
}

func create(c *cli.Context) (err error) {
	tokenName, amount := c.Args().Get(0), c.Args().Get(1)
	if tokenName == "" || amount == "" {
		return cli.Exit("Usage: giftcard create <token-name> <amount-ada>", 1)
	}
	lovelace, err := ParseAda(amount)
	if err != nil {
		return
	}

	env, err := shared.NewEnv(c)
	if err != nil {
		return
	}
	defer env.Close()

	builder, err := env.Wallet(c.String("secret-file"), "WALLET_ROOT_KEY")
	if err != nil {
		return
	}
	contract, err := loadContract(env)
	if err != nil {
		return
	}

	fmt.Println("Constructing gift card transaction...")

	wallet, err := env.WalletInfo(c.Context, builder)
	if err != nil {
		return
	}

	plan, err := contract.CreateGiftCard(wallet, tokenName, LovelaceValue(lovelace))
	if err != nil {
		return
	}

	txHash, err := env.Submit(c.Context, builder, plan)
	if txHash == "" {
		return
	}

	scripts, scriptErr := contract.Scripts(contract.TokenNameHex, contract.ParamUtxo)
	if scriptErr != nil {
		return errors.Wrap(scriptErr, "gift card submitted but its scripts could not be derived")
	}

	if recordErr := env.Db.AddGiftCard(GiftCardRecord{
		TxHash:        txHash,
		Network:       env.Config.Network,
		TokenName:     contract.TokenNameHex,
		ParamUtxo:     contract.ParamUtxo,
		PolicyId:      scripts.PolicyId,
		RedeemAddress: scripts.RedeemAddress.String(),
		Lovelace:      lovelace,
	}); recordErr != nil {
		log.Warn().Msgf("failed to record gift card: %+v", recordErr)
	}

	shared.PrintSubmitted(os.Stdout, "Gift card", txHash, err)
	fmt.Println("Policy id:", scripts.PolicyId)
	if fingerprint, fpErr := AssetFingerprint(scripts.PolicyId, contract.TokenNameHex); fpErr == nil {
		fmt.Println("Token fingerprint:", fingerprint)
	}
	fmt.Println("Parameter utxo:", contract.ParamUtxo)
	fmt.Println("Remember this transaction hash; it will be needed to redeem the gift card.")
	return
}

// redeemParams resolves the token name and parameter utxo of the gift card
// created by txHash, preferring explicit flags over the local record.
func redeemParams(c *cli.Context, db Database, txHash string) (tokenName HexBytes, paramUtxo TxRef, err error) {
	if name, ref := c.String("token-name"), c.String("param-utxo"); name != "" || ref != "" {
		if name == "" || ref == "" {
			err = errors.New("--token-name and --param-utxo must be given together")
			return
		}
		if tokenName, err = NewTokenName(name); err != nil {
			return
		}
		paramUtxo, err = ParseTxRef(ref)
		return
	}

	record, err := db.GetGiftCard(txHash)
	if err != nil {
		err = errors.Wrap(err, "pass --token-name and --param-utxo for gift cards created elsewhere")
		return
	}
	return record.TokenName, record.ParamUtxo, nil
}

func redeem(c *cli.Context) (err error) {
	txHash := strings.TrimSpace(c.Args().First())
	if txHash == "" {
		return cli.Exit("Usage: giftcard redeem <create-tx-hash>", 1)
	}

	env, err := shared.NewEnv(c)
	if err != nil {
		return
	}
	defer env.Close()

	tokenName, paramUtxo, err := redeemParams(c, env.Db, txHash)
	if err != nil {
		return
	}

	builder, err := env.Wallet(c.String("secret-file"), "WALLET_ROOT_KEY")
	if err != nil {
		return
	}
	contract, err := loadContract(env)
	if err != nil {
		return
	}
	contract.WithParams(tokenName, paramUtxo)

	fmt.Println("Looking up gift card UTxO...")
	utxo, err := contract.GetUtxoByTxHash(c.Context, txHash)
	if errors.Is(err, ErrUtxoNotFound) {
		return errors.Errorf("UTxO not found for transaction hash: %s", txHash)
	}
	if err != nil {
		return
	}

	fmt.Println("Constructing redeem transaction...")

	wallet, err := env.WalletInfo(c.Context, builder)
	if err != nil {
		return
	}

	plan, err := contract.RedeemGiftCard(wallet, utxo)
	if err != nil {
		return
	}

	redeemHash, err := env.Submit(c.Context, builder, plan)
	if redeemHash == "" {
		return
	}

	if markErr := env.Db.MarkGiftCardRedeemed(txHash, redeemHash); markErr != nil && !errors.Is(markErr, ErrRecordNotFound) {
		log.Warn().Msgf("failed to update gift card record: %+v", markErr)
	}

	shared.PrintSubmitted(os.Stdout, "Redeem", redeemHash, err)
	return
}

func list(c *cli.Context) (err error) {
	env, err := shared.NewEnv(c)
	if err != nil {
		return
	}
	defer env.Close()

	cards, err := env.Db.ListGiftCards(!c.Bool("all"))
	if err != nil {
		return
	}
	if len(cards) == 0 {
		fmt.Println("No gift cards recorded.")
	}
	for _, g := range cards {
		asset := Asset{PolicyId: g.PolicyId, AssetName: g.TokenName}
		fmt.Printf("%s  %s  %d lovelace  param %s\n", g.TxHash, asset.DisplayName(), g.Lovelace, g.ParamUtxo)
	}
	return
}

func main() {
	shared.Run(&cli.App{
		Name:  "giftcard",
		Usage: "create and redeem gift card tokens",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "mint a gift card token locking the given amount",
				ArgsUsage: "<token-name> <amount-ada>",
				Flags:     []cli.Flag{secretFlag},
				Action:    create,
			},
			{
				Name:      "redeem",
				Usage:     "burn a gift card token and collect its value",
				ArgsUsage: "<create-tx-hash>",
				Flags: []cli.Flag{
					secretFlag,
					&cli.StringFlag{Name: "token-name", Usage: "Token name of a gift card not recorded locally"},
					&cli.StringFlag{Name: "param-utxo", Usage: "Parameter utxo (<hash>#<index>) of a gift card not recorded locally"},
				},
				Action: redeem,
			},
			{
				Name:   "list",
				Usage:  "list locally recorded gift cards",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "all", Usage: "Include redeemed gift cards"}},
				Action: list,
			},
		},
	})
}
