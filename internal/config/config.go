package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
// Segredos e políticas de token são lidos uma única vez aqui e injetados
// nos serviços; nenhuma regra de negócio consulta o ambiente diretamente.
type Config struct {
	Port            int
	DBDSN           string
	RedisURL        string
	Token           TokenConfig
	SessaoUnica     bool
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	SMTP            SMTPConfig
	S3              S3Config
	BaseURL         string
}

// TokenConfig reúne segredo e validade de cada espécie de token.
type TokenConfig struct {
	AccessSecret      string
	AccessTTL         time.Duration
	RefreshSecret     string
	RefreshTTL        time.Duration
	RecuperacaoSecret string
	RecuperacaoTTL    time.Duration
	VerificacaoSecret string
	VerificacaoTTL    time.Duration
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SMTPConfig descreve o servidor de envio de e-mails.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Enc      string
}

// S3Config descreve o object storage dos anexos de demanda. Vazio
// desabilita uploads; o restante da API segue funcionando.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	if cfg.Token, err = loadTokenConfig(); err != nil {
		return nil, err
	}

	cfg.SessaoUnica = getEnv("SESSAO_UNICA", "false") == "true"

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil || smtpPort <= 0 {
		return nil, errors.New("SMTP_PORT inválida")
	}
	cfg.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASS", ""),
		From:     getEnv("SMTP_FROM", "nao-responda@demandas.gov.br"),
		FromName: getEnv("SMTP_FROM_NAME", "Demandas Municipais"),
		Enc:      getEnv("SMTP_ENC", "STARTTLS"),
	}

	cfg.S3 = S3Config{
		Endpoint:     getEnv("S3_ENDPOINT", ""),
		Region:       getEnv("S3_REGION", "auto"),
		Bucket:       getEnv("S3_BUCKET", ""),
		AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		SecretKey:    getEnv("S3_SECRET_KEY", ""),
		PublicDomain: getEnv("S3_PUBLIC_DOMAIN", ""),
	}

	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", "http://localhost:5173"), "/")

	return cfg, nil
}

// loadTokenConfig exige segredos distintos por espécie de token.
func loadTokenConfig() (TokenConfig, error) {
	tc := TokenConfig{}

	secrets := []struct {
		key  string
		dest *string
	}{
		{"JWT_ACCESS_SECRET", &tc.AccessSecret},
		{"JWT_REFRESH_SECRET", &tc.RefreshSecret},
		{"JWT_RECUPERACAO_SECRET", &tc.RecuperacaoSecret},
		{"JWT_VERIFICACAO_SECRET", &tc.VerificacaoSecret},
	}
	for _, s := range secrets {
		val := strings.TrimSpace(getEnv(s.key, ""))
		if len(val) < 32 {
			return tc, errors.New(s.key + " deve ter pelo menos 32 caracteres")
		}
		*s.dest = val
	}

	var err error
	if tc.AccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", 24*time.Hour); err != nil {
		return tc, err
	}
	if tc.RefreshTTL, err = parseDurationEnv("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return tc, err
	}
	if tc.RecuperacaoTTL, err = parseDurationEnv("JWT_RECUPERACAO_TTL", time.Hour); err != nil {
		return tc, err
	}
	if tc.VerificacaoTTL, err = parseDurationEnv("JWT_VERIFICACAO_TTL", 24*time.Hour); err != nil {
		return tc, err
	}

	return tc, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
