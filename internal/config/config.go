package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"CaseLinkBot"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Mongo struct {
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"caselink"`
	} `yaml:"mongo"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
		Channel  string `yaml:"channel" env-default:"caselink:events"`
	} `yaml:"redis"`
	Jwt struct {
		Secret string `yaml:"secret" env:"JWT_SECRET" env-default:""`
		Issuer string `yaml:"issuer" env-default:""`
	} `yaml:"jwt"`
	Twilio struct {
		AccountSID     string        `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID" env-default:""`
		AuthToken      string        `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN" env-default:""`
		From           string        `yaml:"from" env:"TWILIO_WHATSAPP_FROM" env-default:""`
		BaseURL        string        `yaml:"base_url" env-default:"https://api.twilio.com"`
		WebhookURL     string        `yaml:"webhook_url" env:"TWILIO_WEBHOOK_URL" env-default:""`
		ValidateSig    bool          `yaml:"validate_signature" env-default:"false"`
		WebhookTimeout time.Duration `yaml:"webhook_timeout" env-default:"10s"`
		RequestTimeout time.Duration `yaml:"request_timeout" env-default:"15s"`
	} `yaml:"twilio"`
	Files struct {
		Secret string        `yaml:"secret" env:"FILES_SECRET" env-default:""`
		TTL    time.Duration `yaml:"ttl" env-default:"24h"`
	} `yaml:"files"`
	Ws struct {
		SendBuffer   int      `yaml:"send_buffer" env-default:"256"`
		HubBuffer    int      `yaml:"hub_buffer" env-default:"1024"`
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"ws"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env:"PORT" env-default:"9100"`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		LoadDotEnv()
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
