package config

import "time"

type Config struct {
	// адрес шлюза сообщений, пустой - отправка чеков отключена
	MessengerAddr string
	RedisAddr     string
	ReportTTL     time.Duration
	Shop          Shop
}

// Shop is printed at the top of every receipt.
type Shop struct {
	Name    string
	Address string
	Phone   string
}
