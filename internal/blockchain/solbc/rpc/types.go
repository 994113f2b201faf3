// internal/blockchain/solbc/rpc/types.go
package rpc

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// DefaultCooldown – сколько узел пропускается после сетевой ошибки.
const DefaultCooldown = 30 * time.Second

// NodeClient представляет отдельный RPC узел
type NodeClient struct {
	Client        *rpc.Client
	URL           string
	active        bool
	inactiveUntil time.Time
	mutex         sync.RWMutex
	metrics       *metrics
}

// metrics содержит метрики производительности RPC узла
type metrics struct {
	successCount uint64
	errorCount   uint64
	latency      time.Duration
	mutex        sync.RWMutex
}

// Pool представляет пул RPC узлов одного кластера
type Pool struct {
	clients  []*NodeClient
	logger   *zap.Logger
	current  int
	cooldown time.Duration
	now      func() time.Time
	mutex    sync.Mutex
}
