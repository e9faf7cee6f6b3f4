package model

type AssignResponse struct {
	Failed      bool         `json:"failed"`
	Performers  []Performer  `json:"performers"`
	Parts       []Part       `json:"parts"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type InventoryEntry struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Pitch  string `json:"pitch"`
	Copies int    `json:"copies"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
