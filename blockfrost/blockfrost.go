package blockfrost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	pageSize            = 100
	defaultPollInterval = 5 * time.Second
)

// Client is a minimal Blockfrost REST client covering the queries the
// contracts need: address utxos, transaction lookup and submission.
type Client struct {
	BaseUrl      string
	ProjectId    string
	PollInterval time.Duration
	http         *http.Client
	log          *zerolog.Logger
}

var (
	_ ChainProvider = &Client{}
	_ TxSubmitter   = &Client{}
	_ TxWatcher     = &Client{}
)

func NewClient(config *Config) (client *Client, err error) {
	if err = config.Validate(); err != nil {
		return
	}

	client = &Client{
		BaseUrl:      strings.TrimRight(config.BlockfrostUrl, "/"),
		ProjectId:    config.BlockfrostProjectId,
		PollInterval: defaultPollInterval,
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          Log(),
	}
	return
}

// Error is a non 2xx Blockfrost response.
type Error struct {
	StatusCode int    `json:"status_code"`
	Err        string `json:"error"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("blockfrost %d %s: %s", e.StatusCode, e.Err, e.Message)
}

func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (c *Client) req(ctx context.Context, method, path, contentType string, body io.Reader) (out []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseUrl+path, body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	req.Header.Set("project_id", c.ProjectId)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.Trace().Msgf("blockfrost %s %s", method, path)

	rsp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.WithStack(ctx.Err())
			return
		}
		err = errors.Wrapf(ErrRpcFailed, "%s %s: %v", method, path, err)
		return
	}
	defer rsp.Body.Close()

	out, err = io.ReadAll(rsp.Body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	if rsp.StatusCode/100 != 2 {
		parsed := gjson.ParseBytes(out)
		err = &Error{
			StatusCode: rsp.StatusCode,
			Err:        parsed.Get("error").String(),
			Message:    parsed.Get("message").String(),
		}
		if !parsed.IsObject() {
			err = &Error{StatusCode: rsp.StatusCode, Err: http.StatusText(rsp.StatusCode), Message: string(out)}
		}
		return
	}

	return
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.req(ctx, http.MethodGet, path, "", nil)
}

func isNotFound(err error) bool {
	var bfErr *Error
	return errors.As(err, &bfErr) && bfErr.NotFound()
}

// AddressUtxos pages through all utxos at address. An address that has never
// been used yields an empty list.
func (c *Client) AddressUtxos(ctx context.Context, address string) (utxos []Utxo, err error) {
	utxos = make([]Utxo, 0)
	for page := 1; ; page++ {
		body, err := c.get(ctx, fmt.Sprintf("/addresses/%s/utxos?count=%d&page=%d", address, pageSize, page))
		if isNotFound(err) {
			return utxos, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch utxos for %s", address)
		}

		parsed := gjson.ParseBytes(body).Array()
		for _, item := range parsed {
			utxo, err := parseUtxo(item, item.Get("tx_hash").String())
			if err != nil {
				return nil, err
			}
			utxos = append(utxos, utxo)
		}

		if len(parsed) < pageSize {
			return utxos, nil
		}
	}
}

// TxUtxos returns the outputs created by txHash.
func (c *Client) TxUtxos(ctx context.Context, txHash string) (utxos []Utxo, err error) {
	body, err := c.get(ctx, fmt.Sprintf("/txs/%s/utxos", txHash))
	if isNotFound(err) {
		err = errors.Wrapf(ErrTransactionNotFound, "%s", txHash)
		return
	}
	if err != nil {
		return
	}

	for _, item := range gjson.GetBytes(body, "outputs").Array() {
		if item.Get("consumed_by_tx").Exists() && item.Get("consumed_by_tx").String() != "" {
			continue
		}
		utxo, err := parseUtxo(item, txHash)
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, utxo)
	}
	return
}

type Transaction struct {
	Hash        string `json:"hash"`
	Block       string `json:"block"`
	BlockHeight uint64 `json:"blockHeight"`
	BlockTime   int64  `json:"blockTime"`
	Slot        uint64 `json:"slot"`
	Fees        uint64 `json:"fees"`
}

func (c *Client) GetTransaction(ctx context.Context, txHash string) (tx *Transaction, err error) {
	body, err := c.get(ctx, "/txs/"+txHash)
	if isNotFound(err) {
		err = errors.Wrapf(ErrTransactionNotFound, "%s", txHash)
		return
	}
	if err != nil {
		return
	}

	parsed := gjson.ParseBytes(body)
	fees, _ := strconv.ParseUint(parsed.Get("fees").String(), 10, 64)
	tx = &Transaction{
		Hash:        parsed.Get("hash").String(),
		Block:       parsed.Get("block").String(),
		BlockHeight: parsed.Get("block_height").Uint(),
		BlockTime:   parsed.Get("block_time").Int(),
		Slot:        parsed.Get("slot").Uint(),
		Fees:        fees,
	}
	return
}

// SubmitTx posts the signed transaction cbor and returns the hash Blockfrost
// reports.
func (c *Client) SubmitTx(ctx context.Context, tx []byte) (txHash string, err error) {
	body, err := c.req(ctx, http.MethodPost, "/tx/submit", "application/cbor", bytes.NewReader(tx))
	if err != nil {
		err = errors.Wrapf(ErrSubmitFailed, "%v", err)
		return
	}

	txHash = strings.Trim(strings.TrimSpace(string(body)), `"`)
	if err = ValidateTxHash(txHash); err != nil {
		err = errors.Wrapf(ErrSubmitFailed, "unexpected submit response %s", string(body))
	}
	return
}

// WaitForTx polls until txHash is included in a block or ctx is done.
func (c *Client) WaitForTx(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		tx, err := c.GetTransaction(ctx, txHash)
		if err == nil {
			c.log.Info().Msgf("transaction %s included in block %d (slot %d)", tx.Hash, tx.BlockHeight, tx.Slot)
			return nil
		}
		if !errors.Is(err, ErrTransactionNotFound) {
			return err
		}

		c.log.Debug().Msgf("waiting for transaction %s", txHash)

		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}

func parseUtxo(item gjson.Result, txHash string) (utxo Utxo, err error) {
	utxo = Utxo{
		Ref: TxRef{
			Hash:  strings.ToLower(txHash),
			Index: uint32(item.Get("output_index").Uint()),
		},
		Address: item.Get("address").String(),
	}

	for _, amount := range item.Get("amount").Array() {
		unit := amount.Get("unit").String()
		quantity, err := strconv.ParseUint(amount.Get("quantity").String(), 10, 64)
		if err != nil {
			return utxo, errors.Wrapf(err, "invalid quantity for %s in %s", unit, utxo.Ref)
		}

		if unit == LovelaceUnit {
			utxo.Value.Lovelace = quantity
			continue
		}

		policyId, assetName, err := ParseUnit(unit)
		if err != nil {
			return utxo, err
		}
		utxo.Value = utxo.Value.Add(Asset{PolicyId: policyId, AssetName: assetName, Quantity: quantity})
	}

	if datum := item.Get("inline_datum").String(); datum != "" {
		if utxo.InlineDatum, err = HexBytesFromString(datum); err != nil {
			return
		}
	}
	if hash := item.Get("data_hash").String(); hash != "" {
		if utxo.DataHash, err = HexBytesFromString(hash); err != nil {
			return
		}
	}
	return
}
