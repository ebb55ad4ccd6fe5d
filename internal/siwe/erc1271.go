package siwe

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// erc1271Magic is both the isValidSignature(bytes32,bytes) selector and the
// value a contract wallet returns for a valid signature.
var erc1271Magic = []byte{0x16, 0x26, 0xba, 0x7e}

var erc1271Args = func() abi.Arguments {
	bytes32T, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	bytesT, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: bytes32T}, {Type: bytesT}}
}()

// RPCContractChecker asks the account contract, over JSON-RPC, whether it
// accepts a signature (ERC-1271).
type RPCContractChecker struct {
	urlTemplate string
	projectID   string
}

// NewRPCContractChecker builds a checker. urlTemplate receives the numeric
// chain id and the project id, in that order.
func NewRPCContractChecker(urlTemplate, projectID string) *RPCContractChecker {
	return &RPCContractChecker{urlTemplate: urlTemplate, projectID: projectID}
}

func (c *RPCContractChecker) endpoint(chainID int64) string {
	return fmt.Sprintf(c.urlTemplate, chainID, c.projectID)
}

func (c *RPCContractChecker) IsValidSignature(ctx context.Context, chainID int64, account common.Address, hash common.Hash, signature []byte) (bool, error) {
	client, err := ethclient.DialContext(ctx, c.endpoint(chainID))
	if err != nil {
		return false, fmt.Errorf("failed to dial rpc for chain %d: %w", chainID, err)
	}
	defer client.Close()

	args, err := erc1271Args.Pack([32]byte(hash), signature)
	if err != nil {
		return false, fmt.Errorf("failed to encode isValidSignature call: %w", err)
	}
	data := append(append([]byte{}, erc1271Magic...), args...)

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &account, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("isValidSignature call failed: %w", err)
	}
	return len(out) >= 4 && bytes.Equal(out[:4], erc1271Magic), nil
}
