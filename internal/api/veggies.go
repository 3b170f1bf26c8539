package api

import (
	"net/http"
	"plantary/pkg/domain"
)

type plantRequest struct {
	Category domain.Category `json:"vsubtype"`
}

func (h *Handler) handleVeggies(w http.ResponseWriter, r *http.Request, segments []string) {
	switch {
	case len(segments) == 0 || segments[0] == "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		size, page, err := pageParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		veggies := h.Ledger.ListVeggiesPage(r.Context(), size, page)
		writeJSON(w, http.StatusOK, map[string]any{"veggies": domain.WireVeggies(veggies)})
	case len(segments) == 1 && segments[0] == "plant":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleMintPlant(w, r)
	case len(segments) == 1:
		h.handleVeggie(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "harvest":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleHarvest(w, r, segments[0])
	default:
		writeError(w, http.StatusNotFound, "veggie endpoint not found")
	}
}

func (h *Handler) handleMintPlant(w http.ResponseWriter, r *http.Request) {
	var req plantRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant request payload")
		return
	}
	veggie, _, err := h.Ledger.MintPlant(r.Context(), req.Category)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"veggie": veggie.ToWire()})
}

func (h *Handler) handleHarvest(w http.ResponseWriter, r *http.Request, rawID string) {
	parent, err := parseTokenID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	veggie, _, err := h.Ledger.Harvest(r.Context(), parent)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"veggie": veggie.ToWire()})
}

func (h *Handler) handleVeggie(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseTokenID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch r.Method {
	case http.MethodGet:
		veggie, err := h.Ledger.GetVeggie(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"veggie": veggie.ToWire()})
	case http.MethodDelete:
		if _, err := h.Ledger.DeleteVeggie(r.Context(), id); err != nil {
			writeLedgerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// handleOwners serves GET /owners/{account}/veggies?vtype=&page_size=&page=.
func (h *Handler) handleOwners(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) != 2 || segments[0] == "" || segments[1] != "veggies" {
		writeError(w, http.StatusNotFound, "owner endpoint not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	owner := domain.AccountID(segments[0])
	kind, err := domain.ParseKind(r.URL.Query().Get("vtype"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	size, page, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := h.Ledger.CountOwnerVeggies(r.Context(), owner, kind)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	veggies, err := h.Ledger.GetOwnerVeggiesPage(r.Context(), owner, kind, size, page)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":   owner,
		"total":   total,
		"veggies": domain.WireVeggies(veggies),
	})
}
