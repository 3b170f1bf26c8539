package api

import (
	"net/http"
	"plantary/internal/core"
	"plantary/internal/intake"
	"plantary/pkg/domain"
	"strconv"
	"time"
)

const maxIntakeMemory = 32 << 20

type seedRequest struct {
	Kind       domain.Kind      `json:"vtype"`
	Category   domain.Category  `json:"vsubtype"`
	Descriptor string           `json:"meta_url"`
	Rarity     float64          `json:"rarity"`
	Edition    uint32           `json:"edition"`
	State      domain.SeedState `json:"state"`
}

func (h *Handler) handleSeeds(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) == 0 || segments[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleListSeeds(w, r)
		case http.MethodPost:
			h.handleCreateSeed(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}
	if len(segments) != 1 {
		writeError(w, http.StatusNotFound, "seed endpoint not found")
		return
	}
	if segments[0] == "intake" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleIntake(w, r)
		return
	}

	raw, err := domain.ParseID(segments[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := domain.SeedID(raw)
	switch r.Method {
	case http.MethodGet:
		seed, ok := h.Ledger.GetSeed(r.Context(), id)
		if !ok {
			writeError(w, http.StatusNotFound, "seed not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"seed": seed.ToWire()})
	case http.MethodPut:
		h.handleUpdateSeed(w, r, id)
	case http.MethodDelete:
		if _, err := h.Ledger.DeleteSeed(r.Context(), id); err != nil {
			writeLedgerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) handleListSeeds(w http.ResponseWriter, r *http.Request) {
	size, page, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := r.URL.Query()
	if query.Get("vtype") == "" && query.Get("vsubtype") == "" {
		seeds := h.Ledger.GetSeedsPage(r.Context(), size, page)
		writeJSON(w, http.StatusOK, map[string]any{"seeds": domain.WireSeeds(seeds)})
		return
	}
	kind, err := domain.ParseKind(query.Get("vtype"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	category, err := domain.ParseCategory(query.Get("vsubtype"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	seeds, err := h.Ledger.GetSeedsOfTypePage(r.Context(), kind, category, size, page)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeds": domain.WireSeeds(seeds)})
}

func (h *Handler) handleCreateSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid seed request payload")
		return
	}
	seed, _, err := h.Ledger.CreateSeed(r.Context(), core.SeedInput{
		Kind:       req.Kind,
		Category:   req.Category,
		Descriptor: req.Descriptor,
		Rarity:     req.Rarity,
		Edition:    req.Edition,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"seed": seed.ToWire()})
}

func (h *Handler) handleUpdateSeed(w http.ResponseWriter, r *http.Request, id domain.SeedID) {
	var req seedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid seed request payload")
		return
	}
	seed, _, err := h.Ledger.UpdateSeed(r.Context(), id, core.SeedUpdate{
		Kind:       req.Kind,
		Category:   req.Category,
		Descriptor: req.Descriptor,
		Rarity:     req.Rarity,
		Edition:    req.Edition,
		State:      req.State,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seed": seed.ToWire()})
}

// handleIntake accepts a multipart form with an "image" file part and the
// seed fields as form values.
func (h *Handler) handleIntake(w http.ResponseWriter, r *http.Request) {
	if h.Intake == nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseMultipartForm(maxIntakeMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid intake form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image part required")
		return
	}
	defer file.Close()

	req := intake.Request{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Artist:      r.FormValue("artist"),
		Visibility:  r.FormValue("visibility"),
		ContentType: header.Header.Get("Content-Type"),
		Image:       file,
	}
	if req.Kind, err = domain.ParseKind(r.FormValue("vtype")); err != nil {
		writeLedgerError(w, err)
		return
	}
	if req.Category, err = domain.ParseCategory(r.FormValue("vsubtype")); err != nil {
		writeLedgerError(w, err)
		return
	}
	if req.Rarity, err = strconv.ParseFloat(r.FormValue("rarity"), 64); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rarity")
		return
	}
	if raw := r.FormValue("edition"); raw != "" {
		edition, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid edition")
			return
		}
		req.Edition = uint32(edition)
	}
	if raw := r.FormValue("seeded_on"); raw != "" {
		if req.SeededOn, err = time.Parse(time.DateOnly, raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid seeded_on")
			return
		}
	}

	res, err := h.Intake.Sow(r.Context(), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"seed":         res.Seed.ToWire(),
		"image_key":    res.ImageKey,
		"metadata_key": res.MetadataKey,
	})
}
