// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet представляет кошелёк Solana.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey

	mu       sync.Mutex
	ataCache map[solana.PublicKey]solana.PublicKey // Кеш для ассоциированных адресов токен-аккаунтов (ATA)
}

// NewWallet создаёт новый кошелёк из base58-encoded приватного ключа.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return FromPrivateKey(solana.PrivateKey(privateKeyBytes)), nil
}

// FromPrivateKey оборачивает уже декодированный ключ.
func FromPrivateKey(privateKey solana.PrivateKey) *Wallet {
	return &Wallet{
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
		ataCache:   make(map[solana.PublicKey]solana.PublicKey),
	}
}

// Generate создаёт кошелёк со случайным ключом.
func Generate() (*Wallet, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return FromPrivateKey(key), nil
}

// Address возвращает публичный ключ подписанта.
func (w *Wallet) Address() solana.PublicKey {
	return w.PublicKey
}

// SignTransaction подписывает транзакцию с помощью приватного ключа кошелька.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// GetATA возвращает адрес ассоциированного токен-аккаунта (ATA) для заданного токена (mint).
// Если адрес уже был вычислен ранее, возвращается значение из кеша.
func (w *Wallet) GetATA(mint solana.PublicKey) (solana.PublicKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ataCache == nil {
		w.ataCache = make(map[solana.PublicKey]solana.PublicKey)
	}
	if ata, ok := w.ataCache[mint]; ok {
		return ata, nil
	}
	ata, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	// Сохраняем вычисленный ATA в кеш
	w.ataCache[mint] = ata
	return ata, nil
}

// ExportBase58 возвращает приватный ключ в base58 для сохранения в keyring.
func (w *Wallet) ExportBase58() string {
	return base58.Encode(w.PrivateKey)
}

// String возвращает строковое представление кошелька (его публичный ключ).
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
