package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Lottery  LotteryConfig
	Storage  StorageConfig
	Token    TokenConfig
	VRF      VRFConfig
	Keeper   KeeperConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// LotteryConfig holds the game rules.
type LotteryConfig struct {
	MinNumber          int
	MaxNumber          int
	TicketPrice        int64
	TokenDecimals      int32
	MainPoolPercentage int64
	// Split of the pool portion; sums to 100.
	FirstPrizePercentage  int64
	SecondPrizePercentage int64
	ThirdPrizePercentage  int64
	DevelopmentPercentage int64
	// Split of the reserve portion; sums to 100.
	FirstReservePercentage  int64
	SecondReservePercentage int64
	ThirdReservePercentage  int64
	// Minimum main pool levels in tickets' worth.
	MinFirstPoolTickets  int64
	MinSecondPoolTickets int64
	MinThirdPoolTickets  int64
	DrawInterval         time.Duration
	DrawHourUTC          int
	DayChangeHourUTC     int
	RandomWords          int
}

// StorageConfig selects the storage backend: "mongo" or "memory".
type StorageConfig struct {
	Driver string
}

// TokenConfig selects the payment token: "memory" or "erc20".
type TokenConfig struct {
	Driver          string
	RPCURL          string
	ContractAddress string
	TreasuryAddress string
	TreasuryFunds   int64
	OperatorKey     string
	ChainID         int64
	// TxTimeout bounds the wait for a transfer to be mined. The wait runs inside a database
	// transaction, so it must end before MongoDB's 60s transaction lifetime.
	TxTimeout time.Duration
}

const maxTxTimeout = 60 * time.Second

// VRFConfig configures the local randomness coordinator.
type VRFConfig struct {
	Secret              string
	SubscriptionBalance int64
	RequestFee          int64
}

// KeeperConfig configures the automation loop.
type KeeperConfig struct {
	Enabled  bool
	Schedule string
	LockTTL  time.Duration
}

// RedisConfig is only used for the keeper lease; an empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configures event publishing; no brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load loads configuration from an optional .env file, config files and environment variables
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "daily-lotto")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("LogLevel", "info")

	v.SetDefault("Lottery.MinNumber", 0)
	v.SetDefault("Lottery.MaxNumber", 24)
	v.SetDefault("Lottery.TicketPrice", 1_000_000)
	v.SetDefault("Lottery.TokenDecimals", 6)
	v.SetDefault("Lottery.MainPoolPercentage", 80)
	v.SetDefault("Lottery.FirstPrizePercentage", 60)
	v.SetDefault("Lottery.SecondPrizePercentage", 20)
	v.SetDefault("Lottery.ThirdPrizePercentage", 10)
	v.SetDefault("Lottery.DevelopmentPercentage", 10)
	v.SetDefault("Lottery.FirstReservePercentage", 50)
	v.SetDefault("Lottery.SecondReservePercentage", 30)
	v.SetDefault("Lottery.ThirdReservePercentage", 20)
	v.SetDefault("Lottery.MinFirstPoolTickets", 10)
	v.SetDefault("Lottery.MinSecondPoolTickets", 5)
	v.SetDefault("Lottery.MinThirdPoolTickets", 2)
	v.SetDefault("Lottery.DrawInterval", "24h")
	v.SetDefault("Lottery.DrawHourUTC", 2)
	v.SetDefault("Lottery.DayChangeHourUTC", 3)
	v.SetDefault("Lottery.RandomWords", 4)

	v.SetDefault("Storage.Driver", "mongo")
	v.SetDefault("Token.Driver", "memory")
	v.SetDefault("Token.TreasuryAddress", "0x000000000000000000000000000000000000dEaD")
	v.SetDefault("Token.TxTimeout", "45s")
	v.SetDefault("VRF.Secret", "local-vrf-secret")
	v.SetDefault("Keeper.Enabled", true)
	v.SetDefault("Keeper.Schedule", "@every 30s")
	v.SetDefault("Keeper.LockTTL", "25s")
	v.SetDefault("Kafka.Topic", "lottery-events")
}

// Validate checks that the game rules are internally consistent.
func (c *Config) Validate() error {
	l := c.Lottery
	var errs []error
	if l.MinNumber < 0 || l.MaxNumber < l.MinNumber {
		errs = append(errs, fmt.Errorf("invalid number range %d-%d", l.MinNumber, l.MaxNumber))
	}
	if l.TicketPrice <= 0 {
		errs = append(errs, errors.New("ticket price must be positive"))
	}
	if l.MainPoolPercentage < 0 || l.MainPoolPercentage > 100 {
		errs = append(errs, fmt.Errorf("main pool percentage %d out of range", l.MainPoolPercentage))
	}
	if s := l.FirstPrizePercentage + l.SecondPrizePercentage + l.ThirdPrizePercentage + l.DevelopmentPercentage; s != 100 {
		errs = append(errs, fmt.Errorf("pool tier percentages sum to %d, want 100", s))
	}
	if s := l.FirstReservePercentage + l.SecondReservePercentage + l.ThirdReservePercentage; s != 100 {
		errs = append(errs, fmt.Errorf("reserve tier percentages sum to %d, want 100", s))
	}
	if l.DrawHourUTC < 0 || l.DrawHourUTC > 23 || l.DayChangeHourUTC < 0 || l.DayChangeHourUTC > 23 {
		errs = append(errs, errors.New("hours must be within 0-23"))
	}
	if l.DrawInterval <= 0 {
		errs = append(errs, errors.New("draw interval must be positive"))
	}
	if l.RandomWords < 4 {
		errs = append(errs, errors.New("at least 4 random words are required"))
	}
	switch c.Storage.Driver {
	case "mongo", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Token.TxTimeout < 0 || c.Token.TxTimeout >= maxTxTimeout {
		errs = append(errs, fmt.Errorf("token tx timeout %s must be below %s", c.Token.TxTimeout, maxTxTimeout))
	}
	switch c.Token.Driver {
	case "memory", "erc20":
	default:
		errs = append(errs, fmt.Errorf("unknown token driver %q", c.Token.Driver))
	}
	return errors.Join(errs...)
}
