package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"token-monitor/internal/models"
	"token-monitor/internal/validation"

	"github.com/joho/godotenv"
)

const (
	defaultSolanaRPCURL      = "https://api.mainnet-beta.solana.com"
	defaultAlchemyURL        = "https://eth-mainnet.g.alchemy.com/v2/"
	defaultSolanaAddresses   = "6p6xgHyF7AeE6TZkSmFsko444wqoP15icUSqi2jfGiPN,FUAfBo2jgks6gB4Z4LfZkqSZgzNucisEHqnNebaRxM1P"
	defaultEthereumAddresses = "0x2652067bc90dd89BB67ae6f08A723d58b05E543b"

	SPLTokenProgramID      = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenMetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

	TransferEventSignature = "Transfer(address,address,uint256)"
	ApprovalEventSignature = "Approval(address,address,uint256)"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel           string
	MonitoringInterval time.Duration
	HTTP               HTTPConfig
	Health             HealthConfig
	Kafka              KafkaConfig
	Database           DatabaseConfig
	Solana             SolanaConfig
	Ethereum           EthereumConfig
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	Timeout time.Duration
}

// HealthConfig holds the health/metrics listener configuration. An empty
// address disables the listener.
type HealthConfig struct {
	Addr string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled       bool
	BrokerAddress string
	Topic         string
	BatchSize     int
	BatchTimeout  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// SolanaConfig holds the account-model chain configuration
type SolanaConfig struct {
	RpcEndpoint       string
	RateLimit         float64
	Addresses         []string
	TxLimit           int
	TokenProgramID    string
	MetadataProgramID string
	ExplorerBaseURL   string
}

// EthereumConfig holds the block-oriented chain configuration
type EthereumConfig struct {
	RpcEndpoint string
	ApiKey      string
	// RequireApiKey is set when the endpoint is derived from ALCHEMY_API_KEY
	RequireApiKey bool
	RateLimit     float64
	Addresses     []string
	// BlocksToScan must not be negative
	BlocksToScan    int
	EventSignatures []string
	ExplorerBaseURL string
}

// BearerToken returns the API key to send as an Authorization header. The key
// is only sent to the endpoint derived from it.
func (e EthereumConfig) BearerToken() string {
	if !e.RequireApiKey {
		return ""
	}
	return e.ApiKey
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not fatal, as env vars might be set externally
	}

	apiKey := getEnv("ALCHEMY_API_KEY", "")

	config := &Config{
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MonitoringInterval: time.Duration(getEnvAsInt("MONITORING_INTERVAL", 15)) * time.Second,
		HTTP: HTTPConfig{
			Timeout: time.Duration(getEnvAsInt("HTTP_TIMEOUT", 30)) * time.Second,
		},
		Health: HealthConfig{
			Addr: os.Getenv("HEALTH_ADDR"),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvAsBool("KAFKA_ENABLED", false),
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", "localhost:9092"),
			Topic:         getEnv("KAFKA_TOPIC", "token-creation-reports"),
			BatchSize:     getEnvAsInt("KAFKA_BATCH_SIZE", 1),
			BatchTimeout:  time.Duration(getEnvAsInt("KAFKA_BATCH_TIMEOUT", 1)) * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "token_monitor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Solana: SolanaConfig{
			RpcEndpoint:       getEnv("SOLANA_RPC_URL", defaultSolanaRPCURL),
			RateLimit:         getEnvAsFloat("SOLANA_RATE_LIMIT", 4),
			Addresses:         getEnvAsList("SOLANA_ADDRESSES", defaultSolanaAddresses),
			TxLimit:           getEnvAsInt("SOLANA_TX_LIMIT", 5),
			TokenProgramID:    getEnv("SPL_TOKEN_PROGRAM_ID", SPLTokenProgramID),
			MetadataProgramID: getEnv("TOKEN_METADATA_PROGRAM_ID", TokenMetadataProgramID),
			ExplorerBaseURL:   "https://solscan.io/tx/",
		},
		Ethereum: EthereumConfig{
			RpcEndpoint:     getEnv("ETH_RPC_URL", defaultAlchemyURL+apiKey),
			ApiKey:          apiKey,
			RequireApiKey:   os.Getenv("ETH_RPC_URL") == "",
			RateLimit:       getEnvAsFloat("ETH_RATE_LIMIT", 4),
			Addresses:       getEnvAsList("ETH_ADDRESSES", defaultEthereumAddresses),
			BlocksToScan:    getEnvAsInt("BLOCKS_TO_SCAN", 10),
			EventSignatures: []string{TransferEventSignature, ApprovalEventSignature},
			ExplorerBaseURL: "https://etherscan.io/tx/",
		},
	}

	if _, ok := os.LookupEnv("HEALTH_ADDR"); !ok {
		config.Health.Addr = ":8080"
	}

	return config, nil
}

// Validate checks the loaded configuration before any connection is made
func (c *Config) Validate() error {
	var errs []error

	if c.MonitoringInterval <= 0 {
		errs = append(errs, errors.New("MONITORING_INTERVAL must be positive"))
	}
	if c.Solana.TxLimit <= 0 {
		errs = append(errs, errors.New("SOLANA_TX_LIMIT must be positive"))
	}
	if c.Solana.RateLimit <= 0 {
		errs = append(errs, errors.New("SOLANA_RATE_LIMIT must be positive"))
	}
	if c.Ethereum.RateLimit <= 0 {
		errs = append(errs, errors.New("ETH_RATE_LIMIT must be positive"))
	}
	if c.Ethereum.BlocksToScan < 0 {
		errs = append(errs, errors.New("BLOCKS_TO_SCAN must not be negative"))
	}
	if err := validation.ValidateURL(c.Solana.RpcEndpoint); err != nil {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL: %w", err))
	}
	if c.Ethereum.RequireApiKey && c.Ethereum.ApiKey == "" {
		errs = append(errs, errors.New("ALCHEMY_API_KEY environment variable is required"))
	}
	if err := validation.ValidateURL(c.Ethereum.RpcEndpoint); err != nil {
		errs = append(errs, fmt.Errorf("ETH_RPC_URL: %w", err))
	}

	for _, id := range []string{c.Solana.TokenProgramID, c.Solana.MetadataProgramID} {
		if err := validation.ValidateAddress(id, models.Solana); err != nil {
			errs = append(errs, fmt.Errorf("program id: %w", err))
		}
	}
	for _, addr := range c.Solana.Addresses {
		if err := validation.ValidateAddress(addr, models.Solana); err != nil {
			errs = append(errs, fmt.Errorf("SOLANA_ADDRESSES: %w", err))
		}
	}
	for _, addr := range c.Ethereum.Addresses {
		if err := validation.ValidateAddress(addr, models.Ethereum); err != nil {
			errs = append(errs, fmt.Errorf("ETH_ADDRESSES: %w", err))
		}
	}

	return errors.Join(errs...)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, preserving order
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
