package cardano

import (
	"context"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/blinklabs-io/gouroboros/ledger"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// NodeSubmitter submits transactions over the node-to-client local tx
// submission protocol of a cardano-node unix socket.
type NodeSubmitter struct {
	socketPath string
	magic      NetworkMagic
	log        *zerolog.Logger
}

var _ TxSubmitter = &NodeSubmitter{}

func NewNodeSubmitter(socketPath string, net Network) (submitter *NodeSubmitter, err error) {
	params, err := net.Params()
	if err != nil {
		return
	}
	if !FileExists(socketPath) {
		err = errors.Errorf("node socket '%s' does not exist", socketPath)
		return
	}
	return &NodeSubmitter{socketPath: socketPath, magic: params.Magic, log: Log()}, nil
}

func (n *NodeSubmitter) SubmitTx(ctx context.Context, tx []byte) (txHash string, err error) {
	if txHash, err = TxHash(tx); err != nil {
		return
	}

	txType, err := ledger.DetermineTransactionType(tx)
	if err != nil {
		err = errors.Wrap(err, "failed to determine transaction era")
		return
	}

	conn, err := ouroboros.NewConnection(
		ouroboros.WithNetworkMagic(uint32(n.magic)),
		ouroboros.WithNodeToNode(false),
		ouroboros.WithKeepAlive(false),
	)
	if err != nil {
		err = errors.Wrap(err, "failed to create node connection")
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	if err = conn.Dial("unix", n.socketPath); err != nil {
		err = errors.Wrapf(err, "failed to dial node socket '%s'", n.socketPath)
		return
	}

	n.log.Debug().Msgf("submitting tx %s (era type %d) to %s", txHash, txType, n.socketPath)

	done := make(chan error, 1)
	go func() {
		done <- conn.LocalTxSubmission().Client.SubmitTx(uint16(txType), tx)
	}()

	select {
	case <-ctx.Done():
		err = errors.WithStack(ctx.Err())
	case err = <-done:
		if err != nil {
			err = errors.Wrapf(ErrSubmitFailed, "%v", err)
		}
	}
	return
}
