// internal/blockchain/solbc/rpc/pool.go
package rpc

import (
	"context"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// NewPool создает пул узлов; первый адрес – основной.
func NewPool(urls []string, logger *zap.Logger) *Pool {
	clients := make([]*NodeClient, 0, len(urls))
	for _, u := range urls {
		clients = append(clients, NewClient(u))
	}
	return &Pool{
		clients:  clients,
		logger:   logger.Named("rpc-pool"),
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// Nodes возвращает узлы пула в порядке приоритета.
func (p *Pool) Nodes() []*NodeClient {
	return p.clients
}

// GetNextClient возвращает первый доступный узел в порядке приоритета:
// основной узел возвращается в работу сразу после паузы. Если выключены
// все, пул снова пробует основной.
func (p *Pool) GetNextClient() *NodeClient {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.clients) == 0 {
		return nil
	}
	now := p.now()
	for idx := range p.clients {
		if p.clients[idx].available(now) {
			if idx != p.current {
				p.logger.Info("Switched RPC node", zap.String("url", p.clients[idx].URL))
			}
			p.current = idx
			return p.clients[idx]
		}
	}

	p.logger.Warn("All RPC nodes are failing, retrying primary")
	p.current = 0
	p.clients[0].SetActive(true)
	return p.clients[0]
}

// HasActiveClients проверяет наличие активных клиентов в пуле
func (p *Pool) HasActiveClients() bool {
	for _, client := range p.clients {
		if client.IsActive() {
			return true
		}
	}
	return false
}

// Execute выполняет операцию на текущем узле. При сбое узла операция
// повторяется на следующем, каждый узел не более одного раза. Повторы
// с паузой остаются за вызывающим кодом.
func (p *Pool) Execute(ctx context.Context, method string, operation func(*solanarpc.Client) error) error {
	if len(p.clients) == 0 {
		return ErrNoActiveClients
	}

	var lastErr error
	for attempt := 0; attempt < len(p.clients); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		node := p.GetNextClient()

		start := time.Now()
		err := operation(node.Client)
		node.UpdateMetrics(err == nil, time.Since(start))
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsNodeFailure(err) || ctx.Err() != nil {
			return err
		}

		if len(p.clients) > 1 {
			node.deactivate(p.now().Add(p.cooldown))
			p.logger.Warn("RPC node failed",
				zap.String("url", node.URL),
				zap.String("method", method),
				zap.Error(err))
		}
	}
	return lastErr
}
