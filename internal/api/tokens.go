package api

import (
	"net/http"
	"plantary/internal/core"
	"plantary/pkg/domain"
)

type mintTokenRequest struct {
	Owner   domain.AccountID `json:"owner_id"`
	TokenID string           `json:"token_id"`
}

type transferRequest struct {
	Owner    domain.AccountID `json:"owner_id,omitempty"`
	NewOwner domain.AccountID `json:"new_owner_id"`
}

type accessRequest struct {
	Delegate domain.AccountID `json:"delegate"`
}

func (h *Handler) handleTokens(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) == 0 || segments[0] == "" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleMintToken(w, r)
		return
	}
	if len(segments) != 2 {
		writeError(w, http.StatusNotFound, "token endpoint not found")
		return
	}
	id, err := parseTokenID(segments[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch segments[1] {
	case "owner":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		owner, err := h.Ledger.OwnerOf(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token_id": domain.FormatID(uint64(id)), "owner_id": owner})
	case "transfer":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleTransfer(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "token endpoint not found")
	}
}

func (h *Handler) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req mintTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid token request payload")
		return
	}
	id, err := parseTokenID(req.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Ledger.MintToken(r.Context(), req.Owner, id); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token_id": domain.FormatID(uint64(id)), "owner_id": req.Owner})
}

// handleTransfer moves a token from the caller, or from owner_id when the
// caller acts as a delegate.
func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request, id domain.TokenID) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer request payload")
		return
	}
	if req.NewOwner == "" {
		writeError(w, http.StatusBadRequest, "new_owner_id required")
		return
	}
	var err error
	if req.Owner != "" {
		_, err = h.Ledger.TransferFrom(r.Context(), req.Owner, req.NewOwner, id)
	} else {
		_, err = h.Ledger.Transfer(r.Context(), req.NewOwner, id)
	}
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token_id": domain.FormatID(uint64(id)), "owner_id": req.NewOwner})
}

func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) == 0 || segments[0] == "" {
		switch r.Method {
		case http.MethodGet:
			query := r.URL.Query()
			owner := domain.AccountID(query.Get("owner"))
			caller := domain.AccountID(query.Get("caller"))
			writeJSON(w, http.StatusOK, map[string]any{"allowed": h.Ledger.CheckAccess(r.Context(), owner, caller)})
		case http.MethodPost:
			var req accessRequest
			if err := decodeBody(r, &req); err != nil || req.Delegate == "" {
				writeError(w, http.StatusBadRequest, "invalid access request payload")
				return
			}
			if _, err := h.Ledger.GrantAccess(r.Context(), req.Delegate); err != nil {
				writeLedgerError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
		return
	}
	if len(segments) != 1 {
		writeError(w, http.StatusNotFound, "access endpoint not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if _, err := h.Ledger.RevokeAccess(r.Context(), domain.AccountID(segments[0])); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePrices(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) != 0 && segments[0] != "" {
		writeError(w, http.StatusNotFound, "price endpoint not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"prices": h.Ledger.Prices()})
	case http.MethodPut:
		var prices core.PriceTable
		if err := decodeBody(r, &prices); err != nil {
			writeError(w, http.StatusBadRequest, "invalid price table payload")
			return
		}
		if err := h.Ledger.SetPrices(r.Context(), prices); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"prices": h.Ledger.Prices()})
	default:
		methodNotAllowed(w)
	}
}
