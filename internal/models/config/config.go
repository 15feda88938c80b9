package config

// AppConfig глобальная конфигурация приложения
var AppConfig *Config

// Config основной конфиг
type Config struct {
	Environment string
	Bot         BotConfig
	Database    DatabaseConfig
}

type BotConfig struct {
	Token      string
	Debug      bool
	ChannelIDs []int64 // чаты, куда уходят объявления о свободных местах
	BaseURL    string  // база для ссылок самозаписи
}
