package handlers

import (
	"encoding/json"
	"net/http"

	"cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/vaultmatch/vault-engine/engine"
	"github.com/vaultmatch/vault-engine/escrow"
	"github.com/vaultmatch/vault-engine/types"
)

type OrderHandler struct {
	engine orderEngine
}

type orderEngine interface {
	Orders() []escrow.OrderData
	Order(addr types.Address) (escrow.OrderData, error)
	CreateOrder(p engine.CreateOrderParams) (types.Address, error)
	MatchOrders(matcher string, orderA, orderB types.Address, amount math.Int) error
	CloseOrder(owner string, order types.Address) error
}

func NewOrderHandler(engine orderEngine) OrderHandler {
	return OrderHandler{engine: engine}
}

type orderResponse struct {
	Address       string `json:"address"`
	Owner         string `json:"owner"`
	Vault         string `json:"vault"`
	CreatedAt     int64  `json:"created_at"`
	Status        string `json:"status"`
	FromAsset     string `json:"from_asset"`
	ToAsset       string `json:"to_asset"`
	InitialAmount string `json:"initial_amount"`
	Remaining     string `json:"remaining"`
	Reserved      string `json:"reserved"`
	PriceRate     string `json:"price_rate"`
	Slippage      string `json:"slippage"`
}

func toOrderResponse(o escrow.OrderData) orderResponse {
	return orderResponse{
		Address:       o.Address.String(),
		Owner:         o.Owner.String(),
		Vault:         o.Vault.String(),
		CreatedAt:     o.CreatedAt,
		Status:        o.Status.String(),
		FromAsset:     o.FromAsset.String(),
		ToAsset:       o.ToAsset.String(),
		InitialAmount: o.InitialAmount.String(),
		Remaining:     o.Remaining.String(),
		Reserved:      o.Reserved.String(),
		PriceRate:     o.PriceRate.String(),
		Slippage:      o.Slippage.String(),
	}
}

func (h OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.engine.Orders()

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, out)
}

func (h OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	addr, err := types.AddressFromHex(mux.Vars(r)["address"])
	if err != nil {
		http.Error(w, "invalid order address", http.StatusBadRequest)
		return
	}
	order, err := h.engine.Order(addr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, toOrderResponse(order))
}

type createOrderRequest struct {
	Owner     string `json:"owner"`
	FromAsset string `json:"from_asset"`
	ToAsset   string `json:"to_asset"`
	Amount    string `json:"amount"`
	PriceRate string `json:"price_rate"`
	Slippage  string `json:"slippage"`
}

func (h OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Owner == "" {
		http.Error(w, "missing owner", http.StatusBadRequest)
		return
	}
	amount, ok := math.NewIntFromString(req.Amount)
	if !ok {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	rate, err := math.LegacyNewDecFromStr(req.PriceRate)
	if err != nil {
		http.Error(w, "invalid price rate", http.StatusBadRequest)
		return
	}
	slippage, err := math.LegacyNewDecFromStr(req.Slippage)
	if err != nil {
		http.Error(w, "invalid slippage", http.StatusBadRequest)
		return
	}

	addr, err := h.engine.CreateOrder(engine.CreateOrderParams{
		Owner:     req.Owner,
		FromAsset: req.FromAsset,
		ToAsset:   req.ToAsset,
		Amount:    amount,
		PriceRate: rate,
		Slippage:  slippage,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]string{"order": addr.String()})
}

type matchRequest struct {
	Matcher      string `json:"matcher"`
	Order        string `json:"order"`
	CounterOrder string `json:"counter_order"`
	Amount       string `json:"amount"`
}

func (h OrderHandler) MatchOrders(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Matcher == "" {
		http.Error(w, "missing matcher", http.StatusBadRequest)
		return
	}
	orderA, err := types.AddressFromHex(req.Order)
	if err != nil {
		http.Error(w, "invalid order address", http.StatusBadRequest)
		return
	}
	orderB, err := types.AddressFromHex(req.CounterOrder)
	if err != nil {
		http.Error(w, "invalid counter order address", http.StatusBadRequest)
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

	if err := h.engine.MatchOrders(req.Matcher, orderA, orderB, amount); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]string{"status": "matched"})
}

type closeOrderRequest struct {
	Owner string `json:"owner"`
}

func (h OrderHandler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	addr, err := types.AddressFromHex(mux.Vars(r)["address"])
	if err != nil {
		http.Error(w, "invalid order address", http.StatusBadRequest)
		return
	}
	var req closeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Owner == "" {
		http.Error(w, "missing owner", http.StatusBadRequest)
		return
	}

	if err := h.engine.CloseOrder(req.Owner, addr); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]string{"status": "closed"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
