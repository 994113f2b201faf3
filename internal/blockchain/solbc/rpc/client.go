// internal/blockchain/solbc/rpc/client.go
package rpc

import (
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// NewClient создает новый экземпляр NodeClient
func NewClient(url string) *NodeClient {
	return &NodeClient{
		Client:  solanarpc.New(url),
		URL:     url,
		active:  true,
		metrics: &metrics{},
	}
}

// GetMetrics возвращает число успешных и неудачных вызовов и среднюю задержку
func (c *NodeClient) GetMetrics() (uint64, uint64, time.Duration) {
	c.metrics.mutex.RLock()
	defer c.metrics.mutex.RUnlock()
	return c.metrics.successCount, c.metrics.errorCount, c.metrics.latency
}

// SetActive устанавливает статус активности узла
func (c *NodeClient) SetActive(state bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.active = state
	if state {
		c.inactiveUntil = time.Time{}
	}
}

// IsActive возвращает текущий статус активности узла
func (c *NodeClient) IsActive() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.active
}

// deactivate выводит узел из ротации до until.
func (c *NodeClient) deactivate(until time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.active = false
	c.inactiveUntil = until
}

// available сообщает, можно ли использовать узел сейчас; по истечении
// паузы узел возвращается в ротацию.
func (c *NodeClient) available(now time.Time) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.active && !now.Before(c.inactiveUntil) {
		c.active = true
	}
	return c.active
}

// UpdateMetrics обновляет метрики узла
func (c *NodeClient) UpdateMetrics(success bool, latency time.Duration) {
	c.metrics.mutex.Lock()
	defer c.metrics.mutex.Unlock()

	if success {
		c.metrics.successCount++
	} else {
		c.metrics.errorCount++
	}
	if c.metrics.latency == 0 {
		c.metrics.latency = latency
		return
	}
	c.metrics.latency = (c.metrics.latency + latency) / 2
}
