package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	TelegramToken  string        `mapstructure:"telegram_token"`
	APIAddr        string        `mapstructure:"api_addr"`
	AdminAPIKey    string        `mapstructure:"admin_api_key"`
	SupportGroup   string        `mapstructure:"support_group"`
	SessionTTL     string        `mapstructure:"session_ttl"`
	ReapInterval   string        `mapstructure:"reap_interval"`
	RequestTimeout string        `mapstructure:"request_timeout"`
	SQLite         SQLite        `mapstructure:"sqlite"`
	Postgresql     Postgresql    `mapstructure:"postgresql"`
	Heroku         Heroku        `mapstructure:"heroku"`
	GitHub         GitHub        `mapstructure:"github"`
	Notifications  Notifications `mapstructure:"notifications"`
}

type SQLite struct {
	DatabaseFolder string `mapstructure:"database_folder"`
}

type Postgresql struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type Heroku struct {
	APIURL string `mapstructure:"api_url"`
}

type GitHub struct {
	Token string `mapstructure:"token"`
}

type Notifications struct {
	Slack Slack `mapstructure:"slack"`
	Email Email `mapstructure:"email"`
}

type Slack struct {
	Enabled      bool   `mapstructure:"enabled"`
	WebhookURL   string `mapstructure:"webhook_url"`
	SenderName   string `mapstructure:"sender_name"`
	AdminChannel string `mapstructure:"admin_channel"`
}

type Email struct {
	Enabled           bool   `mapstructure:"enabled"`
	SMTPServerAddress string `mapstructure:"smtp_server_address"`
	SMTPServerPort    int    `mapstructure:"smtp_server_port"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	SenderEmail       string `mapstructure:"sender_email"`
	AdminEmail        string `mapstructure:"admin_email"`
}

func NewServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
