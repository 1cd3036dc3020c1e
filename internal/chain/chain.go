package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/craftchain/marketplace-service/internal/config"
	"github.com/craftchain/marketplace-service/internal/entities"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const proofOfPurchaseABI = `[
	{"type":"function","name":"mint","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"orderId","type":"string"},{"name":"tokenURI","type":"string"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"NFTMinted","anonymous":false,
	 "inputs":[{"indexed":true,"name":"tokenId","type":"uint256"},{"indexed":true,"name":"owner","type":"address"},
	           {"indexed":false,"name":"orderId","type":"string"},{"indexed":false,"name":"tokenURI","type":"string"}]}
]`

// Client holds the RPC connection and the custodial minting key.
type Client struct {
	eth      *ethclient.Client
	contract common.Address
	treasury common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	abi      abi.ABI

	confirmations  uint64
	confirmTimeout time.Duration
}

func New(cfg config.Chain) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid chain private key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(proofOfPurchaseABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}

	return &Client{
		eth:            eth,
		contract:       common.HexToAddress(cfg.ContractAddress),
		treasury:       common.HexToAddress(cfg.TreasuryAddress),
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        big.NewInt(cfg.ChainID),
		abi:            parsed,
		confirmations:  cfg.Confirmations,
		confirmTimeout: cfg.ConfirmTimeout,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

type MintResult struct {
	TokenID         int64
	TxHash          string
	ContractAddress string
}

// Mint submits a mint transaction signed by the custodial key and waits for
// it to be mined. A confirmed receipt without a parseable NFTMinted event is
// ambiguous, not failed: a token may have been issued.
func (c *Client) Mint(ctx context.Context, ownerAddress, orderID, metadataURI string) (MintResult, error) {
	calldata, err := c.abi.Pack("mint", common.HexToAddress(ownerAddress), orderID, metadataURI)
	if err != nil {
		return MintResult{}, fmt.Errorf("%w: failed to pack calldata: %v", entities.ErrMintFailed, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return MintResult{}, fmt.Errorf("%w: failed to get nonce: %v", entities.ErrMintFailed, err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return MintResult{}, fmt.Errorf("%w: failed to get gas price: %v", entities.ErrMintFailed, err)
	}

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: c.from,
		To:   &c.contract,
		Data: calldata,
	})
	if err != nil {
		return MintResult{}, fmt.Errorf("%w: failed to estimate gas: %v", entities.ErrMintFailed, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return MintResult{}, fmt.Errorf("%w: failed to sign tx: %v", entities.ErrMintFailed, err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return MintResult{}, fmt.Errorf("%w: failed to send tx: %v", entities.ErrMintFailed, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.eth, signed)
	if err != nil {
		// The tx was broadcast: it may still land after the deadline.
		return MintResult{}, fmt.Errorf("%w: tx %s not confirmed: %v",
			entities.ErrMintAmbiguous, signed.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return MintResult{}, fmt.Errorf("%w: tx %s reverted", entities.ErrMintFailed, signed.Hash().Hex())
	}

	tokenID, err := c.parseMintedTokenID(receipt)
	if err != nil {
		return MintResult{}, fmt.Errorf("%w: tx %s confirmed: %v",
			entities.ErrMintAmbiguous, signed.Hash().Hex(), err)
	}

	return MintResult{
		TokenID:         tokenID,
		TxHash:          signed.Hash().Hex(),
		ContractAddress: c.contract.Hex(),
	}, nil
}

func (c *Client) parseMintedTokenID(receipt *types.Receipt) (int64, error) {
	eventID := c.abi.Events["NFTMinted"].ID
	for _, lg := range receipt.Logs {
		if lg.Address != c.contract || len(lg.Topics) < 2 || lg.Topics[0] != eventID {
			continue
		}
		return new(big.Int).SetBytes(lg.Topics[1].Bytes()).Int64(), nil
	}
	return 0, errors.New("no NFTMinted event in receipt")
}

// VerifyPayment confirms a client-claimed payment transaction on-chain:
// sender, recipient, value and finality are all checked against the node
// rather than trusted from the request.
func (c *Client) VerifyPayment(ctx context.Context, txHash, payerAddress string, requiredWei *big.Int) error {
	hash := common.HexToHash(txHash)

	tx, pending, err := c.eth.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return fmt.Errorf("%w: transaction %s not found", entities.ErrPaymentProvider, txHash)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to fetch transaction: %v", entities.ErrPaymentProvider, err)
	}
	if pending {
		return fmt.Errorf("%w: transaction %s not yet mined", entities.ErrPaymentProvider, txHash)
	}

	if tx.To() == nil || *tx.To() != c.treasury {
		return fmt.Errorf("%w: transaction recipient is not the treasury", entities.ErrPaymentDeclined)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return fmt.Errorf("%w: failed to recover sender: %v", entities.ErrPaymentProvider, err)
	}
	if sender != common.HexToAddress(payerAddress) {
		return fmt.Errorf("%w: transaction sender does not match payer", entities.ErrPaymentDeclined)
	}

	if tx.Value().Cmp(requiredWei) < 0 {
		return fmt.Errorf("%w: paid %s wei, need %s wei", entities.ErrAmountMismatch, tx.Value(), requiredWei)
	}

	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch receipt: %v", entities.ErrPaymentProvider, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction reverted", entities.ErrPaymentDeclined)
	}

	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch head block: %v", entities.ErrPaymentProvider, err)
	}
	confirmed := head - receipt.BlockNumber.Uint64() + 1
	if confirmed < c.confirmations {
		return fmt.Errorf("%w: %d of %d confirmations", entities.ErrPaymentProvider, confirmed, c.confirmations)
	}

	return nil
}
