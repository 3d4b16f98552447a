/*

On-chain read access. Wraps a JSON-RPC connection with typed view-call
helpers plus a batch path that ships independent eth_calls as a single
round trip. Every failure surfaces as a per-call error; nothing here
aborts a caller's wider aggregation.

*/

package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/yieldlens/yieldlens/internal/logger"
)

var chainLogger = logger.GetForComponent("chain_client")

var (
	ErrEmptyResult = errors.New("view call returned no data")
	ErrBadAddress  = errors.New("invalid contract address")
)

// ViewCall describes one view-function invocation.
type ViewCall struct {
	To     string
	ABI    *abi.ABI
	Method string
	Args   []interface{}
}

// ViewResult carries a single batched call's outcome. Err is per-call:
// one failed element never poisons its batch.
type ViewResult struct {
	Values []interface{}
	Err    error
}

// Client is the EVM read capability used by position readers.
type Client struct {
	eth *ethclient.Client
	rpc *rpc.Client
}

// Dial connects to an EVM JSON-RPC endpoint.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	chainLogger.Info().Str("endpoint", endpoint).Msg("Connected to EVM RPC endpoint")
	return &Client{eth: ethclient.NewClient(rpcClient), rpc: rpcClient}, nil
}

// Close tears down the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// CallView executes one view function and returns its unpacked outputs.
func (c *Client) CallView(ctx context.Context, call ViewCall) ([]interface{}, error) {
	if !common.IsHexAddress(call.To) {
		return nil, fmt.Errorf("%w: %s", ErrBadAddress, call.To)
	}

	data, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", call.Method, err)
	}

	to := common.HexToAddress(call.To)
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call to %s failed: %w", call.Method, call.To, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrEmptyResult, call.Method, call.To)
	}

	values, err := call.ABI.Unpack(call.Method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", call.Method, err)
	}
	return values, nil
}

// BatchCallViews executes independent view calls as one JSON-RPC batch.
// Results are positional; each element carries its own error so partial
// success is usable. This is a best-effort latency optimization only.
func (c *Client) BatchCallViews(ctx context.Context, calls []ViewCall) []ViewResult {
	results := make([]ViewResult, len(calls))
	if len(calls) == 0 {
		return results
	}

	// Only calls that validate and pack go on the wire; callIndex maps each
	// batch element back to its slot in results.
	elems := make([]rpc.BatchElem, 0, len(calls))
	raws := make([]hexutil.Bytes, len(calls))
	callIndex := make([]int, 0, len(calls))
	for i, call := range calls {
		if !common.IsHexAddress(call.To) {
			results[i].Err = fmt.Errorf("%w: %s", ErrBadAddress, call.To)
			continue
		}
		data, err := call.ABI.Pack(call.Method, call.Args...)
		if err != nil {
			results[i].Err = fmt.Errorf("failed to pack %s call: %w", call.Method, err)
			continue
		}
		elems = append(elems, rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{
					"to":   call.To,
					"data": hexutil.Encode(data),
				},
				"latest",
			},
			Result: &raws[i],
		})
		callIndex = append(callIndex, i)
	}
	if len(elems) == 0 {
		return results
	}

	if err := c.rpc.BatchCallContext(ctx, elems); err != nil {
		// Transport-level failure: every pending element fails, but each
		// call still reports individually.
		for _, i := range callIndex {
			results[i].Err = fmt.Errorf("batch call failed: %w", err)
		}
		return results
	}

	for j, elem := range elems {
		i := callIndex[j]
		call := calls[i]
		if elem.Error != nil {
			results[i].Err = fmt.Errorf("%s call to %s failed: %w", call.Method, call.To, elem.Error)
			continue
		}
		if len(raws[i]) == 0 {
			results[i].Err = fmt.Errorf("%w: %s on %s", ErrEmptyResult, call.Method, call.To)
			continue
		}
		values, err := call.ABI.Unpack(call.Method, raws[i])
		if err != nil {
			results[i].Err = fmt.Errorf("failed to unpack %s result: %w", call.Method, err)
			continue
		}
		results[i].Values = values
	}
	return results
}

// TokenBalance reads an ERC-20 balance.
func (c *Client) TokenBalance(ctx context.Context, token, holder string) (*big.Int, error) {
	if !common.IsHexAddress(holder) {
		return nil, fmt.Errorf("%w: %s", ErrBadAddress, holder)
	}
	values, err := c.CallView(ctx, ViewCall{
		To:     token,
		ABI:    &ERC20ABI,
		Method: "balanceOf",
		Args:   []interface{}{common.HexToAddress(holder)},
	})
	if err != nil {
		return nil, err
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", values[0])
	}
	return balance, nil
}

// NativeBalance reads the chain-native balance of an address.
func (c *Client) NativeBalance(ctx context.Context, holder string) (*big.Int, error) {
	if !common.IsHexAddress(holder) {
		return nil, fmt.Errorf("%w: %s", ErrBadAddress, holder)
	}
	return c.eth.BalanceAt(ctx, common.HexToAddress(holder), nil)
}
