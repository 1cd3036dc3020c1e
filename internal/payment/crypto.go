package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/shopspring/decimal"
)

// TxVerifier confirms a claimed payment transaction against the chain.
type TxVerifier interface {
	VerifyPayment(ctx context.Context, txHash, payerAddress string, requiredWei *big.Int) error
}

type CryptoRail struct {
	logger   *slog.Logger
	verifier TxVerifier
	// ethUSD converts USD order totals into wei. A static configured rate:
	// undercharging beyond it is rejected as an amount mismatch.
	ethUSD decimal.Decimal
}

var weiPerETH = decimal.New(1, 18)

func NewCryptoRail(logger *slog.Logger, verifier TxVerifier, ethUSDRate string) (*CryptoRail, error) {
	rate, err := decimal.NewFromString(ethUSDRate)
	if err != nil || !rate.IsPositive() {
		return nil, fmt.Errorf("invalid eth/usd rate %q", ethUSDRate)
	}
	return &CryptoRail{
		logger:   logger.With(slog.String("rail", "crypto")),
		verifier: verifier,
		ethUSD:   rate,
	}, nil
}

// Charge treats the proof as unverified client input and independently
// confirms the transaction on-chain before the order may be marked paid.
func (r *CryptoRail) Charge(ctx context.Context, order entities.Order, proof entities.PaymentProof) (string, error) {
	if proof.TxHash == "" || proof.PayerAddress == "" {
		return "", fmt.Errorf("%w: missing transaction reference or payer address", entities.ErrPaymentDeclined)
	}

	required := r.RequiredWei(order.Total)

	if err := r.verifier.VerifyPayment(ctx, proof.TxHash, proof.PayerAddress, required); err != nil {
		return "", err
	}

	return proof.TxHash, nil
}

// RequiredWei converts a USD total into the minimum acceptable wei value.
func (r *CryptoRail) RequiredWei(totalUSD decimal.Decimal) *big.Int {
	wei := totalUSD.Div(r.ethUSD).Mul(weiPerETH)
	return wei.Round(0).BigInt()
}
