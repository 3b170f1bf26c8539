// Package api exposes the plantary ledger over HTTP. Identifiers travel as
// decimal strings; the caller identity and attached deposit come from the
// X-Plantary-Account and X-Plantary-Deposit headers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"plantary/internal/core"
	"plantary/internal/intake"
	"plantary/pkg/domain"
	"strconv"
	"strings"
)

// Request headers carrying the call context.
const (
	HeaderAccount = "X-Plantary-Account"
	HeaderDeposit = "X-Plantary-Deposit"
)

// APIPrefix roots every ledger route.
const APIPrefix = "/api/v1"

// Ledger is the service surface served over HTTP.
type Ledger interface {
	CreateSeed(ctx context.Context, input core.SeedInput) (domain.Seed, domain.Result, error)
	UpdateSeed(ctx context.Context, id domain.SeedID, update core.SeedUpdate) (domain.Seed, domain.Result, error)
	DeleteSeed(ctx context.Context, id domain.SeedID) (domain.Result, error)
	GetSeed(ctx context.Context, id domain.SeedID) (domain.Seed, bool)
	GetSeedsPage(ctx context.Context, pageSize, page uint16) []domain.Seed
	GetSeedsOfTypePage(ctx context.Context, kind domain.Kind, category domain.Category, pageSize, page uint16) ([]domain.Seed, error)

	MintPlant(ctx context.Context, category domain.Category) (domain.Veggie, domain.Result, error)
	Harvest(ctx context.Context, parentID domain.TokenID) (domain.Veggie, domain.Result, error)
	GetVeggie(ctx context.Context, id domain.TokenID) (domain.Veggie, error)
	DeleteVeggie(ctx context.Context, id domain.TokenID) (domain.Result, error)
	ListVeggiesPage(ctx context.Context, pageSize, page uint16) []domain.Veggie
	CountOwnerVeggies(ctx context.Context, owner domain.AccountID, kind domain.Kind) (int, error)
	GetOwnerVeggiesPage(ctx context.Context, owner domain.AccountID, kind domain.Kind, pageSize, page uint16) ([]domain.Veggie, error)

	MintToken(ctx context.Context, owner domain.AccountID, id domain.TokenID) (domain.Result, error)
	Transfer(ctx context.Context, newOwner domain.AccountID, id domain.TokenID) (domain.Result, error)
	TransferFrom(ctx context.Context, owner, newOwner domain.AccountID, id domain.TokenID) (domain.Result, error)
	OwnerOf(ctx context.Context, id domain.TokenID) (domain.AccountID, error)
	GrantAccess(ctx context.Context, delegate domain.AccountID) (domain.Result, error)
	RevokeAccess(ctx context.Context, delegate domain.AccountID) (domain.Result, error)
	CheckAccess(ctx context.Context, owner, caller domain.AccountID) bool

	Prices() core.PriceTable
	SetPrices(ctx context.Context, prices core.PriceTable) error
}

// Sower publishes seed artwork and registers the seed.
type Sower interface {
	Sow(ctx context.Context, req intake.Request) (intake.Result, error)
}

// Handler provides HTTP access to the ledger.
type Handler struct {
	Ledger Ledger
	Intake Sower
}

// NewHandler constructs a ledger HTTP handler. Intake is optional.
func NewHandler(l Ledger) *Handler {
	return &Handler{Ledger: l}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeError(w, http.StatusInternalServerError, "ledger not configured")
		return
	}
	ctx, err := callContext(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	r = r.WithContext(ctx)

	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, APIPrefix), "/")
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch segments[0] {
	case "seeds":
		h.handleSeeds(w, r, segments[1:])
	case "veggies":
		h.handleVeggies(w, r, segments[1:])
	case "owners":
		h.handleOwners(w, r, segments[1:])
	case "tokens":
		h.handleTokens(w, r, segments[1:])
	case "access":
		h.handleAccess(w, r, segments[1:])
	case "prices":
		h.handlePrices(w, r, segments[1:])
	case "openapi.yaml":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		NewOpenAPIHandler().ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

// callContext attaches the caller identity and deposit headers to the
// request context. A missing deposit means zero.
func callContext(r *http.Request) (context.Context, error) {
	ctx := r.Context()
	if caller := strings.TrimSpace(r.Header.Get(HeaderAccount)); caller != "" {
		ctx = core.WithCaller(ctx, domain.AccountID(caller))
	}
	if raw := strings.TrimSpace(r.Header.Get(HeaderDeposit)); raw != "" {
		amount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s header", HeaderDeposit)
		}
		ctx = core.WithAttachedDeposit(ctx, domain.Balance(amount))
	}
	return ctx, nil
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pageParams reads page_size and page. Both default to zero; a zero page
// size returns the whole collection.
func pageParams(r *http.Request) (uint16, uint16, error) {
	size, err := uint16Param(r, "page_size")
	if err != nil {
		return 0, 0, err
	}
	page, err := uint16Param(r, "page")
	if err != nil {
		return 0, 0, err
	}
	return size, page, nil
}

func uint16Param(r *http.Request, name string) (uint16, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint16(v), nil
}

func parseTokenID(raw string) (domain.TokenID, error) {
	id, err := domain.ParseID(raw)
	if err != nil {
		return 0, err
	}
	return domain.TokenID(id), nil
}

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	var violation domain.RuleViolationError
	switch {
	case errors.As(err, &violation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnpaid):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrStillReferenced):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidType), errors.Is(err, domain.ErrInvalidRarity),
		errors.Is(err, domain.ErrInvalidAccount), errors.Is(err, intake.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrExhaustedIDSpace):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeLedgerError(w http.ResponseWriter, err error) {
	var violation domain.RuleViolationError
	if errors.As(err, &violation) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      err.Error(),
			"violations": violation.Result.Violations,
		})
		return
	}
	writeError(w, statusFor(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
