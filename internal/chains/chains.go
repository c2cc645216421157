// Package chains holds the identity-provider network registry and the
// Monolythium chain configurations seedkit can hand to a provider client.
package chains

import (
	"fmt"
	"strings"
)

// ProviderNetwork selects which hosted provider environment a session
// connects to.
type ProviderNetwork string

const (
	SapphireDevnet  ProviderNetwork = "sapphire_devnet"
	SapphireMainnet ProviderNetwork = "sapphire_mainnet"
	Testnet         ProviderNetwork = "testnet"
)

// DefaultNetwork is used when a session config leaves the network empty.
const DefaultNetwork = SapphireDevnet

// ChainConfig describes the chain a recovered account belongs to. It is
// passed through to the provider client at configure time.
type ChainConfig struct {
	ChainID          string `json:"chain_id"` // hex EVM chain id
	RPCEndpoint      string `json:"rpc_endpoint"`
	DisplayName      string `json:"display_name"`
	Ticker           string `json:"ticker"`
	BlockExplorerURL string `json:"block_explorer_url"`
}

// chainConfigs is the canonical registry of chain configurations per
// provider network.
var chainConfigs = map[ProviderNetwork]ChainConfig{
	SapphireDevnet: {
		ChainID:          "0x40003", // Monolythium Testnet
		RPCEndpoint:      "https://evm.testnet.mononodes.xyz",
		DisplayName:      "Monolythium Testnet",
		Ticker:           "MONO",
		BlockExplorerURL: "https://explorer.testnet.mononodes.xyz",
	},
	Testnet: {
		ChainID:          "0x40003",
		RPCEndpoint:      "https://evm.testnet.mononodes.xyz",
		DisplayName:      "Monolythium Testnet",
		Ticker:           "MONO",
		BlockExplorerURL: "https://explorer.testnet.mononodes.xyz",
	},
	SapphireMainnet: {
		ChainID:          "0x40004", // Monolythium Mainnet
		RPCEndpoint:      "https://evm.mainnet.mononodes.xyz",
		DisplayName:      "Monolythium",
		Ticker:           "MONO",
		BlockExplorerURL: "https://explorer.mononodes.xyz",
	},
}

// DefaultTestChainConfig returns the Monolythium Testnet configuration,
// the default chain for sessions that do not specify one.
func DefaultTestChainConfig() ChainConfig {
	return chainConfigs[SapphireDevnet]
}

// ChainConfigFor returns the chain configuration for the given provider
// network.
func ChainConfigFor(network ProviderNetwork) (ChainConfig, error) {
	cfg, ok := chainConfigs[network]
	if !ok {
		return ChainConfig{}, fmt.Errorf("unknown provider network: %s", network)
	}
	return cfg, nil
}

// ListProviderNetworks returns all supported provider networks.
func ListProviderNetworks() []ProviderNetwork {
	return []ProviderNetwork{SapphireDevnet, SapphireMainnet, Testnet}
}

// ParseProviderNetwork parses a string into a ProviderNetwork.
func ParseProviderNetwork(s string) (ProviderNetwork, error) {
	switch strings.ToLower(s) {
	case "sapphire_devnet":
		return SapphireDevnet, nil
	case "sapphire_mainnet":
		return SapphireMainnet, nil
	case "testnet":
		return Testnet, nil
	default:
		return "", fmt.Errorf("unknown provider network: %s (valid: sapphire_devnet, sapphire_mainnet, testnet)", s)
	}
}
