package token

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/exp/slog"
)

const erc20ABI = `[
{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

var _ Token = (*ERC20)(nil)

// ERC20Config describes the on-chain payment token. The operator key is the treasury.
type ERC20Config struct {
	RPCURL          string
	ContractAddress string
	OperatorKey     string // hex private key
	ChainID         int64
	TxTimeout       time.Duration
}

// ERC20 moves tokens through an ERC-20 contract, waiting for each transaction to be mined.
type ERC20 struct {
	backend   *ethclient.Client
	contract  *bind.BoundContract
	key       *ecdsa.PrivateKey
	chainID   *big.Int
	treasury  common.Address
	txTimeout time.Duration
}

// NewERC20 dials the RPC endpoint and binds the token contract.
func NewERC20(ctx context.Context, cfg ERC20Config) (*ERC20, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid token contract address %q", cfg.ContractAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.OperatorKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse operator key: %w", err)
	}
	backend, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)
	}
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, err
	}
	addr := common.HexToAddress(cfg.ContractAddress)
	timeout := cfg.TxTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &ERC20{
		backend:   backend,
		contract:  bind.NewBoundContract(addr, parsed, backend, backend, backend),
		key:       key,
		chainID:   big.NewInt(cfg.ChainID),
		treasury:  crypto.PubkeyToAddress(key.PublicKey),
		txTimeout: timeout,
	}, nil
}

// Treasury is the operator address.
func (e *ERC20) Treasury() string {
	return e.treasury.Hex()
}

func (e *ERC20) TransferFrom(ctx context.Context, from string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !common.IsHexAddress(from) {
		return fmt.Errorf("invalid payer address %q", from)
	}
	return e.transact(ctx, "transferFrom", common.HexToAddress(from), e.treasury, big.NewInt(amount))
}

func (e *ERC20) Transfer(ctx context.Context, to string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !common.IsHexAddress(to) {
		return fmt.Errorf("invalid recipient address %q", to)
	}
	return e.transact(ctx, "transfer", common.HexToAddress(to), big.NewInt(amount))
}

func (e *ERC20) BalanceOf(ctx context.Context, addr string) (int64, error) {
	if !common.IsHexAddress(addr) {
		return 0, fmt.Errorf("invalid address %q", addr)
	}
	var out []interface{}
	if err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(addr)); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("empty balanceOf result")
	}
	bal, ok := out[0].(*big.Int)
	if !ok || !bal.IsInt64() {
		return 0, fmt.Errorf("balance does not fit in int64")
	}
	return bal.Int64(), nil
}

func (e *ERC20) transact(ctx context.Context, method string, params ...interface{}) error {
	opts, err := bind.NewKeyedTransactorWithChainID(e.key, e.chainID)
	if err != nil {
		return err
	}
	opts.Context = ctx
	tx, err := e.contract.Transact(opts, method, params...)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.txTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, e.backend, tx)
	if err != nil {
		return fmt.Errorf("waiting for %s tx %s: %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return fmt.Errorf("%s tx %s reverted", method, tx.Hash().Hex())
	}
	slog.Info("Token transaction mined", "method", method, "tx", tx.Hash().Hex(), "block", receipt.BlockNumber)
	return nil
}
