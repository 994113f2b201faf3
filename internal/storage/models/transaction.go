// internal/storage/models/transaction.go
package models

import "time"

// Transaction – запись локального журнала отправленных транзакций.
type Transaction struct {
	ID            int64
	Signature     string
	WalletAddress string
	Network       string
	Kind          string // send | swap
	Amount        string
	Mint          string
	Recipient     string
	State         string
	ErrorKind     string
	ErrorMessage  string
	Slot          uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
