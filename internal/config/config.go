package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort int
	RedisURL string
	APIKey   string

	TelegramBotToken string
	TelegramChatID   int64

	OpenAIAPIKey     string
	OpenAIModel      string
	AICacheTTL       time.Duration
	AICallsPerMinute int

	BotTick    time.Duration
	RadarTick  time.Duration
	SignalTick time.Duration

	DepositDelay           time.Duration
	WithdrawInclusionDelay time.Duration
	WithdrawFinalityDelay  time.Duration
	SignatureDelay         time.Duration
	SyncDelay              time.Duration
	NotificationTTL        time.Duration
	FaucetReward           float64
	RollupSchedule         string

	WalletProvider bool
	WalletAccounts []string

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string

	MCPTransport string
	MCPHTTPBind  string
	MCPHTTPPort  int

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		SSHHostKeyPath:   strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH")),
		OTLPEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, notification relay disabled")
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q, relay target unset", v)
		}
	}

	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, AI panels will serve fallback text")
	}
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	cfg.AICacheTTL = time.Duration(positiveInt("AI_CACHE_TTL_SECS", 300)) * time.Second
	cfg.AICallsPerMinute = positiveInt("AI_CALLS_PER_MINUTE", 30)

	cfg.BotTick = millis("BOT_TICK_MS", 2000, false)
	cfg.RadarTick = millis("RADAR_TICK_MS", 3000, false)
	cfg.SignalTick = millis("SIGNAL_TICK_MS", 5000, false)

	cfg.DepositDelay = millis("DEPOSIT_DELAY_MS", 4000, true)
	cfg.WithdrawInclusionDelay = millis("WITHDRAW_INCLUSION_MS", 3000, true)
	cfg.WithdrawFinalityDelay = millis("WITHDRAW_FINALITY_MS", 5000, true)
	cfg.SignatureDelay = millis("SIGNATURE_DELAY_MS", 0, true)
	cfg.SyncDelay = millis("SYNC_DELAY_MS", 3000, true)

	cfg.NotificationTTL = 6 * time.Second
	if v := strings.TrimSpace(os.Getenv("NOTIFICATION_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.NotificationTTL = time.Duration(n) * time.Second
		} else {
			log.Printf("Warning: invalid NOTIFICATION_TTL_SECS=%q, defaulting to 6", v)
		}
	}

	cfg.FaucetReward = 100
	if v := strings.TrimSpace(os.Getenv("FAUCET_REWARD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.FaucetReward = n
		} else {
			log.Printf("Warning: invalid FAUCET_REWARD=%q, defaulting to 100", v)
		}
	}

	cfg.RollupSchedule = strings.TrimSpace(os.Getenv("ROLLUP_SCHEDULE"))
	if cfg.RollupSchedule == "" {
		cfg.RollupSchedule = "@every 30s"
	}

	cfg.WalletProvider = true
	if v := strings.TrimSpace(os.Getenv("WALLET_PROVIDER")); v != "" {
		cfg.WalletProvider = !strings.EqualFold(v, "false")
	}
	cfg.WalletAccounts = list("WALLET_ACCOUNTS")

	cfg.SSHPort = positiveInt("SSH_PORT", 23234)
	cfg.SSHAllowedFingerprints = list("SSH_ALLOWED_FINGERPRINTS")
	if len(cfg.SSHAllowedFingerprints) == 0 {
		log.Println("Warning: SSH_ALLOWED_FINGERPRINTS not set, any public key may open the dashboard")
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)

	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")

	return cfg
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, defaulting to %d", key, v, def)
		return def
	}
	return n
}

// millis reads a millisecond duration. Zero is accepted only when allowZero
// is set; tick intervals must stay positive.
func millis(key string, def int, allowZero bool) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return time.Duration(def) * time.Millisecond
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		log.Printf("Warning: invalid %s=%q, defaulting to %dms", key, v, def)
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(n) * time.Millisecond
}

func list(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
