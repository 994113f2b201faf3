// internal/storage/models/token.go
package models

import "time"

// Token – запись списка токенов агрегатора.
type Token struct {
	Address     string
	ChainID     int
	Decimals    uint8
	Name        string
	Symbol      string
	LogoURI     string
	LastUpdated time.Time
}
