package models

// Classification is the kind of token-creation activity a transaction was matched to
type Classification string

const (
	ClassificationNone             Classification = "NONE"
	SPLTokenCreation               Classification = "SPL_TOKEN_CREATION"
	TokenMetadataEvent             Classification = "TOKEN_METADATA_EVENT"
	ContractCreation               Classification = "CONTRACT_CREATION"
	ContractCreationConfirmedERC20 Classification = "CONTRACT_CREATION_CONFIRMED_ERC20"
)

func (c Classification) String() string {
	return string(c)
}

// CandidateEvent is the data extracted from one transaction before classification
type CandidateEvent struct {
	Chain         BlockchainName
	TransactionID string
	Timestamp     *int64
	Addresses     []string
	// Discriminator is the program id (Solana) or "contract creation" (Ethereum)
	Discriminator string
}
