package main

import (
	"fmt"
	"net/http"
	"time"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
)

type HttpServer struct {
	app      *fiber.App
	hostPort string
	network  Network
	chain    ChainProvider
	db       Database
	vesting  *VestingContract
	giftCard *GiftCardContract
}

func NewHttpServer(hostPort string, network Network, chain ChainProvider, db Database, vesting *VestingContract, giftCard *GiftCardContract) *HttpServer {
	s := &HttpServer{
		hostPort: hostPort,
		network:  network,
		chain:    chain,
		db:       db,
		vesting:  vesting,
		giftCard: giftCard,
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	s.app.Use(func(c *fiber.Ctx) error {
		rsp := c.Next()
		log.Info().Msgf("http response: [%d] %s - %s %s", c.Response().StatusCode(), c.IP(), c.Method(), c.Path())
		return rsp
	})

	s.app.Get("/status", s.getStatus)
	s.app.Get("/vesting/script", s.getVestingScript)
	s.app.Get("/vesting/utxo/:txhash", s.getVestingUtxo)
	s.app.Post("/vesting/deposit/plan", s.postDepositPlan)
	s.app.Get("/giftcard/script", s.getGiftCardScript)
	s.app.Get("/giftcard/utxo/:txhash", s.getGiftCardUtxo)
	s.app.Get("/deposits", s.getDeposits)
	s.app.Get("/giftcards", s.getGiftCards)

	return s
}

func (s *HttpServer) Start() (err error) {
	log.Info().Msgf("http server listening on %s", s.hostPort)
	return errors.WithStack(s.app.Listen(s.hostPort))
}

func (s *HttpServer) Stop() (err error) {
	return errors.WithStack(s.app.Shutdown())
}

func (s *HttpServer) errorResponse(c *fiber.Ctx, err error) error {
	statusCode := http.StatusInternalServerError
	reportedErr := err

	for _, match := range []error{
		ErrUtxoNotFound,
		ErrRecordNotFound,
		ErrTransactionNotFound,
	} {
		if errors.Is(err, match) {
			reportedErr = match
			statusCode = http.StatusNotFound
			break
		}
	}

	for _, match := range []error{
		ErrInvalidAddress,
		ErrByronAddress,
		ErrNotKeyAddress,
		ErrInvalidAmount,
		ErrInvalidDuration,
		ErrInvalidTokenName,
		ErrInvalidTransactionId,
		ErrParamsUnset,
		ErrNoUtxos,
		ErrInvalidDatum,
	} {
		if errors.Is(err, match) {
			reportedErr = match
			statusCode = http.StatusBadRequest
			break
		}
	}

	return c.Status(statusCode).JSON(map[string]any{
		"error":   reportedErr.Error(),
		"details": fmt.Sprintf("%+v", err),
	})
}

type ScriptResponse struct {
	Hash    string `json:"hash"`
	Address string `json:"address"`
	CborHex string `json:"cborHex"`
	Version string `json:"version"`
}

func scriptResponse(script PlutusScript, net Network) (rsp ScriptResponse, err error) {
	hash, err := script.Hash()
	if err != nil {
		return
	}
	addr, err := script.Address(net)
	if err != nil {
		return
	}
	return ScriptResponse{
		Hash:    hash.String(),
		Address: addr.String(),
		CborHex: script.Cbor.String(),
		Version: script.Version.String(),
	}, nil
}

func (s *HttpServer) getStatus(c *fiber.Ctx) error {
	vesting, err := s.vesting.ScriptAddress()
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(map[string]any{
		"network":        s.network,
		"vestingAddress": vesting.String(),
		"giftCard":       s.giftCard != nil,
	})
}

func (s *HttpServer) getVestingScript(c *fiber.Ctx) error {
	rsp, err := scriptResponse(s.vesting.Script(), s.network)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(rsp)
}

type VestingUtxoResponse struct {
	Utxo  Utxo         `json:"utxo"`
	Datum VestingDatum `json:"datum"`
}

func (s *HttpServer) getVestingUtxo(c *fiber.Ctx) error {
	utxo, err := s.vesting.GetUtxoByTxHash(c.UserContext(), c.Params("txhash"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	pd, err := utxo.Datum()
	if err != nil {
		return s.errorResponse(c, err)
	}
	datum, err := DecodeVestingDatum(pd)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(VestingUtxoResponse{Utxo: utxo, Datum: datum})
}

type DepositPlanRequest struct {
	WalletAddress string  `json:"walletAddress"`
	Beneficiary   string  `json:"beneficiary"`
	AmountAda     float64 `json:"amountAda"`
	LockSeconds   int64   `json:"lockSeconds"`
}

// postDepositPlan returns the unsigned directives of a deposit so an external
// wallet can build and sign it.
func (s *HttpServer) postDepositPlan(c *fiber.Ctx) error {
	req := &DepositPlanRequest{}
	if err := c.BodyParser(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]any{"error": err.Error()})
	}

	lovelace, err := AdaToLovelace(req.AmountAda)
	if err != nil {
		return s.errorResponse(c, err)
	}
	if req.LockSeconds <= 0 {
		return s.errorResponse(c, errors.Wrapf(ErrInvalidDuration, "got %d", req.LockSeconds))
	}

	wallet, err := GetWalletInfo(c.UserContext(), s.chain, req.WalletAddress)
	if err != nil {
		return s.errorResponse(c, err)
	}

	lockUntil := time.Now().Add(time.Duration(req.LockSeconds) * time.Second)
	plan, err := s.vesting.DepositFund(wallet, LovelaceValue(lovelace), lockUntil, req.Beneficiary)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(map[string]any{
		"lockUntil": lockUntil.UnixMilli(),
		"plan":      plan,
	})
}

// giftCardParams reads tokenName and paramUtxo from the query, falling back
// to the local record of txHash.
func (s *HttpServer) giftCardParams(c *fiber.Ctx, txHash string) (tokenName HexBytes, paramUtxo TxRef, err error) {
	if name, ref := c.Query("tokenName"), c.Query("paramUtxo"); name != "" && ref != "" {
		if tokenName, err = NewTokenName(name); err != nil {
			return
		}
		paramUtxo, err = ParseTxRef(ref)
		return
	}

	if txHash == "" {
		err = errors.Wrap(ErrParamsUnset, "tokenName and paramUtxo query parameters are required")
		return
	}

	record, err := s.db.GetGiftCard(txHash)
	if err != nil {
		return
	}
	return record.TokenName, record.ParamUtxo, nil
}

type GiftCardScriptResponse struct {
	PolicyId    string         `json:"policyId"`
	Fingerprint string         `json:"fingerprint"`
	GiftCard    ScriptResponse `json:"giftCard"`
	Redeem      ScriptResponse `json:"redeem"`
}

func (s *HttpServer) getGiftCardScript(c *fiber.Ctx) error {
	if s.giftCard == nil {
		return c.Status(http.StatusNotFound).JSON(map[string]any{"error": "gift card blueprint not loaded"})
	}

	tokenName, paramUtxo, err := s.giftCardParams(c, "")
	if err != nil {
		return s.errorResponse(c, err)
	}

	scripts, err := s.giftCard.Scripts(tokenName, paramUtxo)
	if err != nil {
		return s.errorResponse(c, err)
	}

	rsp := GiftCardScriptResponse{PolicyId: scripts.PolicyId.String()}
	if rsp.GiftCard, err = scriptResponse(scripts.GiftCard, s.network); err != nil {
		return s.errorResponse(c, err)
	}
	if rsp.Redeem, err = scriptResponse(scripts.Redeem, s.network); err != nil {
		return s.errorResponse(c, err)
	}
	if rsp.Fingerprint, err = AssetFingerprint(scripts.PolicyId, tokenName); err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(rsp)
}

type GiftCardUtxoResponse struct {
	Utxo  Utxo          `json:"utxo"`
	Datum GiftCardDatum `json:"datum"`
}

func (s *HttpServer) getGiftCardUtxo(c *fiber.Ctx) error {
	if s.giftCard == nil {
		return c.Status(http.StatusNotFound).JSON(map[string]any{"error": "gift card blueprint not loaded"})
	}

	txHash := c.Params("txhash")
	tokenName, paramUtxo, err := s.giftCardParams(c, txHash)
	if err != nil {
		return s.errorResponse(c, err)
	}

	contract := *s.giftCard
	utxo, err := contract.WithParams(tokenName, paramUtxo).GetUtxoByTxHash(c.UserContext(), txHash)
	if err != nil {
		return s.errorResponse(c, err)
	}

	pd, err := utxo.Datum()
	if err != nil {
		return s.errorResponse(c, err)
	}
	datum, err := DecodeGiftCardDatum(pd)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(GiftCardUtxoResponse{Utxo: utxo, Datum: datum})
}

func (s *HttpServer) getDeposits(c *fiber.Ctx) error {
	deposits, err := s.db.ListDeposits(c.QueryBool("pending"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deposits)
}

func (s *HttpServer) getGiftCards(c *fiber.Ctx) error {
	cards, err := s.db.ListGiftCards(c.QueryBool("pending"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(cards)
}
