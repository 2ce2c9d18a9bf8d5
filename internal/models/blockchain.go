package models

type BlockchainName string

const (
	Ethereum BlockchainName = "Ethereum"
	Solana   BlockchainName = "Solana"
)

func (b BlockchainName) String() string {
	return string(b)
}
