package validation

import (
	"errors"
	"fmt"
	"net/url"

	"token-monitor/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

const solanaPublicKeyLength = 32

// ValidateAddress validates a wallet or program address for the given chain
func ValidateAddress(address string, chain models.BlockchainName) error {
	if address == "" {
		return errors.New("address cannot be empty")
	}

	switch chain {
	case models.Ethereum:
		return validateEthereumAddress(address)
	case models.Solana:
		return validateSolanaAddress(address)
	default:
		return fmt.Errorf("unsupported chain %q", chain)
	}
}

func validateEthereumAddress(address string) error {
	if !common.IsHexAddress(address) || len(address) != 42 {
		return fmt.Errorf("invalid Ethereum address format: %s", address)
	}
	return nil
}

// validateSolanaAddress checks the address decodes to a 32 byte public key
func validateSolanaAddress(address string) error {
	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("invalid Solana address %s: %w", address, err)
	}
	if len(decoded) != solanaPublicKeyLength {
		return fmt.Errorf("invalid Solana address %s: decoded to %d bytes", address, len(decoded))
	}
	return nil
}

// ValidateURL validates an RPC endpoint URL
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}
