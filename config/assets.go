package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AssetSpec declares one token ledger the engine provisions at startup. The
// native vault needs no declaration; it always exists.
type AssetSpec struct {
	Symbol        string `yaml:"symbol"`
	InitialSupply string `yaml:"initial_supply"`
}

type AssetRegistry struct {
	Assets []AssetSpec `yaml:"assets"`
}

// LoadAssets reads the asset registry. A missing file is an empty registry,
// not an error, so a native-only deployment needs no assets file.
func LoadAssets(path string) (AssetRegistry, error) {
	var reg AssetRegistry

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return reg, fmt.Errorf("failed to read assets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return reg, fmt.Errorf("failed to parse assets file: %w", err)
	}

	seen := make(map[string]struct{}, len(reg.Assets))
	for _, a := range reg.Assets {
		if a.Symbol == "" {
			return reg, fmt.Errorf("asset with empty symbol")
		}
		if _, dup := seen[a.Symbol]; dup {
			return reg, fmt.Errorf("duplicate asset symbol: %s", a.Symbol)
		}
		seen[a.Symbol] = struct{}{}
	}
	return reg, nil
}
