package solbc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

const simulationFailedMessage = "Transaction simulation failed"

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// Diagnostics is a structured view of an RPC failure.
type Diagnostics struct {
	Type             string       `json:"type"`
	Code             int          `json:"code,omitempty"`
	Message          string       `json:"message"`
	SimulationFailed bool         `json:"simulation_failed,omitempty"`
	Logs             []string     `json:"logs,omitempty"`
	InstructionError interface{}  `json:"instruction_error,omitempty"`
	Anchor           *AnchorError `json:"anchor_error,omitempty"`
}

// ErrorAnalyzer provides methods to analyze Solana transaction errors
type ErrorAnalyzer struct {
	logger *zap.Logger
}

// NewErrorAnalyzer creates a new ErrorAnalyzer instance
func NewErrorAnalyzer(logger *zap.Logger) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
	}
}

// Analyze extracts simulation logs and instruction errors from a jsonrpc.RPCError.
func (ea *ErrorAnalyzer) Analyze(err error) Diagnostics {
	if err == nil {
		return Diagnostics{Type: "none", Message: "no error provided"}
	}

	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return Diagnostics{Type: "generic_error", Message: err.Error()}
	}

	d := Diagnostics{
		Type:    "rpc_error",
		Code:    rpcErr.Code,
		Message: rpcErr.Message,
	}
	if !strings.Contains(rpcErr.Message, simulationFailedMessage) {
		return d
	}
	d.SimulationFailed = true

	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return d
	}
	if logs, ok := dataMap["logs"].([]interface{}); ok {
		for _, entry := range logs {
			logStr, ok := entry.(string)
			if !ok {
				continue
			}
			d.Logs = append(d.Logs, logStr)
			if strings.Contains(logStr, "AnchorError occurred") {
				anchorErr := parseAnchorErrorLog(logStr)
				d.Anchor = &anchorErr
				ea.logger.Warn("Anchor error detected",
					zap.Int("code", anchorErr.Code),
					zap.String("name", anchorErr.Name),
					zap.String("message", anchorErr.Msg))
			}
		}
	}
	if instrErr, ok := dataMap["err"]; ok && instrErr != nil {
		d.InstructionError = instrErr
	}
	return d
}

// Classify maps an RPC failure of op onto the wallet error taxonomy.
// Preflight simulation failures are terminal; transport failures, rate limits
// and node-side 5xx responses are transient.
func (ea *ErrorAnalyzer) Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return walleterr.Wrap(walleterr.KindInternal, op, "cancelled", err)
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		d := ea.Analyze(err)
		if d.SimulationFailed {
			e := walleterr.Wrap(walleterr.KindSimulation, op, rpcErr.Message, err)
			e.Logs = d.Logs
			e.Payload = d.InstructionError
			return e
		}
		return walleterr.Wrap(walleterr.KindTransientNetwork, op, "rpc error", err)
	}

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= http.StatusInternalServerError {
			return walleterr.Wrap(walleterr.KindTransientNetwork, op, fmt.Sprintf("rpc http status %d", httpErr.Code), err)
		}
		return walleterr.Wrap(walleterr.KindInternal, op, fmt.Sprintf("rpc http status %d", httpErr.Code), err)
	}

	return walleterr.Wrap(walleterr.KindTransientNetwork, op, "rpc transport error", err)
}

// parseAnchorErrorLog parses an Anchor error log string
// Example: "Program log: AnchorError occurred. Error Code: InstructionFallbackNotFound. Error Number: 101. Error Message: Fallback functions are not supported."
func parseAnchorErrorLog(logStr string) AnchorError {
	result := AnchorError{}

	if parts := strings.Split(logStr, "Error Number:"); len(parts) > 1 {
		numParts := strings.Split(parts[1], ".")
		if len(numParts) > 0 {
			fmt.Sscanf(strings.TrimSpace(numParts[0]), "%d", &result.Code)
		}
	}
	if parts := strings.Split(logStr, "Error Code:"); len(parts) > 1 {
		result.Name = strings.TrimSpace(strings.Split(parts[1], ".")[0])
	}
	if parts := strings.Split(logStr, "Error Message:"); len(parts) > 1 {
		result.Msg = strings.TrimSpace(strings.Split(parts[1], ".")[0])
	}

	return result
}

// Format renders diagnostics for logs or terminal output.
func (d Diagnostics) Format() string {
	jsonBytes, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error formatting analysis: %v", err)
	}
	return string(jsonBytes)
}
