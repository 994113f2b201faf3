// internal/blockchain/solbc/rpc/errors.go
package rpc

import (
	"context"
	"errors"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// ErrNoActiveClients возникает, когда в пуле нет узлов
var ErrNoActiveClients = errors.New("no active RPC clients available")

// IsNodeFailure сообщает, что ошибка относится к узлу, а не к запросу.
// Ответ JSON-RPC с кодом ошибки (например, провал preflight) другой узел
// повторит так же, поэтому переключения не вызывает.
func IsNodeFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, solanarpc.ErrNotFound) {
		return false
	}
	var rpcErr *jsonrpc.RPCError
	return !errors.As(err, &rpcErr)
}
