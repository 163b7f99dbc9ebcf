package handlers

import (
	"encoding/json"
	"net/http"

	"cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/vaultmatch/vault-engine/escrow"
	"github.com/vaultmatch/vault-engine/types"
)

type VaultHandler struct {
	engine vaultEngine
}

type vaultEngine interface {
	Vaults() []escrow.VaultData
	Vault(addr types.Address) (escrow.VaultData, error)
	Collector(vault types.Address) (escrow.CollectorData, error)
	WithdrawFees(vault types.Address, amount math.Int) error
}

func NewVaultHandler(engine vaultEngine) VaultHandler {
	return VaultHandler{engine: engine}
}

type vaultResponse struct {
	Address      string `json:"address"`
	Asset        string `json:"asset"`
	Active       bool   `json:"active"`
	Accumulated  string `json:"accumulated"`
	FeeCollector string `json:"fee_collector"`
}

func toVaultResponse(v escrow.VaultData) vaultResponse {
	return vaultResponse{
		Address:      v.Address.String(),
		Asset:        v.Asset.String(),
		Active:       v.Active,
		Accumulated:  v.Accumulated.String(),
		FeeCollector: v.FeeCollector.String(),
	}
}

func (h VaultHandler) ListVaults(w http.ResponseWriter, r *http.Request) {
	vaults := h.engine.Vaults()

	out := make([]vaultResponse, 0, len(vaults))
	for _, v := range vaults {
		out = append(out, toVaultResponse(v))
	}
	writeJSON(w, out)
}

func (h VaultHandler) GetVault(w http.ResponseWriter, r *http.Request) {
	addr, err := types.AddressFromHex(mux.Vars(r)["address"])
	if err != nil {
		http.Error(w, "invalid vault address", http.StatusBadRequest)
		return
	}
	vault, err := h.engine.Vault(addr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, toVaultResponse(vault))
}

type feeResponse struct {
	Collector string `json:"collector"`
	Vault     string `json:"vault"`
	Owner     string `json:"owner"`
	Balance   string `json:"balance"`
}

func (h VaultHandler) GetFees(w http.ResponseWriter, r *http.Request) {
	vault, err := types.AddressFromHex(mux.Vars(r)["vault"])
	if err != nil {
		http.Error(w, "invalid vault address", http.StatusBadRequest)
		return
	}
	c, err := h.engine.Collector(vault)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, feeResponse{
		Collector: c.Address.String(),
		Vault:     c.Vault.String(),
		Owner:     c.Owner.String(),
		Balance:   c.Balance.String(),
	})
}

type withdrawFeesRequest struct {
	Amount string `json:"amount"`
}

func (h VaultHandler) WithdrawFees(w http.ResponseWriter, r *http.Request) {
	vault, err := types.AddressFromHex(mux.Vars(r)["vault"])
	if err != nil {
		http.Error(w, "invalid vault address", http.StatusBadRequest)
		return
	}
	var req withdrawFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount := math.ZeroInt()
	if req.Amount != "" {
		var ok bool
		amount, ok = math.NewIntFromString(req.Amount)
		if !ok {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
	}

	if err := h.engine.WithdrawFees(vault, amount); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]string{"status": "withdrawn"})
}
