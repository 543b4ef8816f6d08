package httpapi

// ControlResponse is returned by the start/stop/reset endpoints. Commands are
// applied by the engine at the next tick boundary, so Status reflects the
// state at the time of the request.
type ControlResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

// HistoryResponse is the recent price window for one symbol.
type HistoryResponse struct {
	Symbol string    `json:"symbol"`
	Prices []float64 `json:"prices"`
}
