package cardano

import (
	"github.com/pkg/errors"
)

const (
	DefaultDatabasePath      = "cardano-contracts.db"
	DefaultVestingBlueprint  = "vesting/plutus.json"
	DefaultGiftCardBlueprint = "giftcard/plutus.json"
)

type Config struct {
	Network             Network `json:"network"`
	BlockfrostUrl       string  `json:"blockfrosturl"`
	BlockfrostProjectId string  `json:"-"`
	VestingBlueprint    string  `json:"vestingblueprint"`
	GiftCardBlueprint   string  `json:"giftcardblueprint"`
	DatabasePath        string  `json:"databasepath"`
	NodeSocket          string  `json:"nodesocket"`
	LogLevel            string  `json:"loglevel"`
	Wait                bool    `json:"wait"`
}

func DefaultConfig() *Config {
	return &Config{
		Network:           NetworkMainNet,
		VestingBlueprint:  DefaultVestingBlueprint,
		GiftCardBlueprint: DefaultGiftCardBlueprint,
		DatabasePath:      DefaultDatabasePath,
		LogLevel:          "info",
	}
}

// Validate fills the Blockfrost url from the network when unset.
func (c *Config) Validate() (err error) {
	params, err := c.Network.Params()
	if err != nil {
		return
	}
	if c.BlockfrostProjectId == "" {
		return errors.Wrap(ErrApiKeyNotSet, "set it in .env or pass --blockfrost-project-id")
	}
	if c.BlockfrostUrl == "" {
		c.BlockfrostUrl = params.BlockfrostUrl
	}
	return
}
