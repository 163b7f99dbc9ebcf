package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vaultmatch/vault-engine/token"
)

type WalletHandler struct {
	engine walletEngine
}

type walletEngine interface {
	Wallet(symbol, owner string) (token.WalletData, error)
}

func NewWalletHandler(engine walletEngine) WalletHandler {
	return WalletHandler{engine: engine}
}

type walletResponse struct {
	Address string `json:"address"`
	Minter  string `json:"minter"`
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

func (h WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol, owner := vars["symbol"], vars["owner"]
	if symbol == "" || owner == "" {
		http.Error(w, "missing asset symbol or owner", http.StatusBadRequest)
		return
	}
	wallet, err := h.engine.Wallet(symbol, owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, walletResponse{
		Address: wallet.Address.String(),
		Minter:  wallet.Minter.String(),
		Owner:   wallet.Owner.String(),
		Balance: wallet.Balance.String(),
	})
}
