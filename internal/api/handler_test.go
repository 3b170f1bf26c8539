package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"plantary/internal/api"
	"plantary/internal/blob"
	"plantary/internal/core"
	"plantary/internal/intake"
	"plantary/pkg/domain"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	admin = "plantary.testnet"
	alice = "alice.testnet"
	bob   = "bob.testnet"
)

type seedResponse struct {
	Seed domain.WireSeed `json:"seed"`
}

type seedsResponse struct {
	Seeds []domain.WireSeed `json:"seeds"`
}

type veggieResponse struct {
	Veggie domain.WireVeggie `json:"veggie"`
}

type ownerResponse struct {
	Total   int                 `json:"total"`
	Veggies []domain.WireVeggie `json:"veggies"`
}

type errorResponse struct {
	Error      string             `json:"error"`
	Violations []domain.Violation `json:"violations"`
}

type call struct {
	method  string
	path    string
	caller  string
	deposit string
	body    any
}

func setupHandler(t *testing.T, engine *domain.RulesEngine) (*core.Service, *api.Handler, blob.Store) {
	t.Helper()
	if engine == nil {
		engine = core.NewDefaultRulesEngine()
	}
	svc := core.NewInMemoryService(engine, core.WithAdmins(admin))
	store := blob.NewMemory()
	handler := api.NewHandler(svc)
	handler.Intake = intake.New(store, svc)
	return svc, handler, store
}

func do(t *testing.T, h http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	if c.caller != "" {
		req.Header.Set(api.HeaderAccount, c.caller)
	}
	if c.deposit != "" {
		req.Header.Set(api.HeaderDeposit, c.deposit)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out), resp.Body.String())
	return out
}

func createSeed(t *testing.T, h http.Handler, kind domain.Kind, category domain.Category) domain.WireSeed {
	t.Helper()
	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/seeds", caller: admin, body: map[string]any{
		"vtype": kind, "vsubtype": category, "meta_url": "https://arweave.net/" + kind.String(), "rarity": 2, "edition": 1,
	}})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[seedResponse](t, resp).Seed
}

func mintPlant(t *testing.T, h http.Handler, caller string, category domain.Category, deposit uint64) domain.WireVeggie {
	t.Helper()
	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/veggies/plant", caller: caller,
		deposit: strconv.FormatUint(deposit, 10), body: map[string]any{"vsubtype": category}})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[veggieResponse](t, resp).Veggie
}

func TestHandlerMintHarvestTransfer(t *testing.T) {
	_, h, _ := setupHandler(t, nil)
	plantSeed := createSeed(t, h, domain.KindPlant, domain.CategoryOracle)
	createSeed(t, h, domain.KindHarvest, domain.CategoryOracle)

	plant := mintPlant(t, h, alice, domain.CategoryOracle, 10)
	require.Equal(t, plantSeed.Descriptor, plant.Descriptor)
	require.Equal(t, "0", plant.Parent)
	_, err := strconv.ParseUint(plant.ID, 10, 64)
	require.NoError(t, err, "ids travel as decimal strings")

	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/veggies/" + plant.ID + "/harvest", caller: alice, deposit: "5"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	harvest := decode[veggieResponse](t, resp).Veggie
	require.Equal(t, plant.ID, harvest.Parent)
	require.Equal(t, domain.KindHarvest, harvest.Kind)

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/owners/" + alice + "/veggies?vtype=plant"})
	require.Equal(t, http.StatusOK, resp.Code)
	owned := decode[ownerResponse](t, resp)
	require.Equal(t, 1, owned.Total)
	require.Equal(t, plant.ID, owned.Veggies[0].ID)

	resp = do(t, h, call{method: http.MethodPost, path: "/api/v1/tokens/" + harvest.ID + "/transfer", caller: alice,
		body: map[string]any{"new_owner_id": bob}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/tokens/" + harvest.ID + "/owner"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, bob, decode[map[string]string](t, resp)["owner_id"])

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/veggies/" + harvest.ID})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, harvest, decode[veggieResponse](t, resp).Veggie)

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/veggies?page_size=1&page=1"})
	require.Equal(t, http.StatusOK, resp.Code)
	page := decode[map[string][]domain.WireVeggie](t, resp)["veggies"]
	require.Len(t, page, 1)
	require.Equal(t, harvest.ID, page[0].ID)
}

func TestHandlerDelegatedTransfer(t *testing.T) {
	_, h, _ := setupHandler(t, nil)
	createSeed(t, h, domain.KindPlant, domain.CategoryPortrait)
	plant := mintPlant(t, h, alice, domain.CategoryPortrait, 20)

	transfer := call{method: http.MethodPost, path: "/api/v1/tokens/" + plant.ID + "/transfer", caller: bob,
		body: map[string]any{"owner_id": alice, "new_owner_id": bob}}
	require.Equal(t, http.StatusForbidden, do(t, h, transfer).Code)

	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/access", caller: alice, body: map[string]any{"delegate": bob}})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/access?owner=" + alice + "&caller=" + bob})
	require.True(t, decode[map[string]bool](t, resp)["allowed"])
	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/access?owner=" + bob + "&caller=" + alice})
	require.False(t, decode[map[string]bool](t, resp)["allowed"])

	resp = do(t, h, transfer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.Equal(t, http.StatusNoContent, do(t, h, call{method: http.MethodDelete, path: "/api/v1/access/" + bob, caller: alice}).Code)
	require.Equal(t, http.StatusNotFound, do(t, h, call{method: http.MethodDelete, path: "/api/v1/access/" + bob, caller: alice}).Code)
}

func TestHandlerSeedLifecycle(t *testing.T) {
	_, h, _ := setupHandler(t, nil)
	var created []domain.WireSeed
	for i := 0; i < 3; i++ {
		created = append(created, createSeed(t, h, domain.KindPlant, domain.CategoryMoney))
	}
	createSeed(t, h, domain.KindHarvest, domain.CategoryInsult)

	resp := do(t, h, call{method: http.MethodGet, path: "/api/v1/seeds?page_size=2&page=1"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, decode[seedsResponse](t, resp).Seeds, 2)

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/seeds?vtype=plant&vsubtype=money"})
	require.Equal(t, http.StatusOK, resp.Code)
	filtered := decode[seedsResponse](t, resp).Seeds
	require.Len(t, filtered, 3)
	require.Equal(t, created[0].ID, filtered[0].ID)

	resp = do(t, h, call{method: http.MethodPut, path: "/api/v1/seeds/" + created[1].ID, caller: admin, body: map[string]any{
		"vtype": domain.KindPlant, "vsubtype": domain.CategoryMoney, "meta_url": "ipfs://updated", "rarity": 9, "edition": 4, "state": domain.SeedLive,
	}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[seedResponse](t, resp).Seed
	require.Equal(t, "ipfs://updated", updated.Descriptor)
	require.Equal(t, domain.SeedLive, updated.State)

	resp = do(t, h, call{method: http.MethodPut, path: "/api/v1/seeds/" + created[1].ID, caller: admin, body: map[string]any{
		"vtype": domain.KindHarvest, "vsubtype": domain.CategoryMoney, "meta_url": "x", "rarity": 2,
	}})
	require.Equal(t, http.StatusBadRequest, resp.Code, "kind is immutable")

	require.Equal(t, http.StatusForbidden, do(t, h, call{method: http.MethodDelete, path: "/api/v1/seeds/" + created[0].ID, caller: alice}).Code)
	require.Equal(t, http.StatusNoContent, do(t, h, call{method: http.MethodDelete, path: "/api/v1/seeds/" + created[0].ID, caller: admin}).Code)
	require.Equal(t, http.StatusNotFound, do(t, h, call{method: http.MethodGet, path: "/api/v1/seeds/" + created[0].ID}).Code)

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/seeds/" + created[2].ID})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, created[2], decode[seedResponse](t, resp).Seed)
}

func TestHandlerErrorMapping(t *testing.T) {
	_, h, _ := setupHandler(t, nil)
	createSeed(t, h, domain.KindPlant, domain.CategoryOracle)
	createSeed(t, h, domain.KindHarvest, domain.CategoryOracle)
	plant := mintPlant(t, h, alice, domain.CategoryOracle, 10)
	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/veggies/" + plant.ID + "/harvest", caller: alice, deposit: "5"})
	require.Equal(t, http.StatusCreated, resp.Code)

	tests := []struct {
		name   string
		call   call
		status int
	}{
		{"no caller", call{method: http.MethodPost, path: "/api/v1/veggies/plant", deposit: "10", body: map[string]any{"vsubtype": 1}}, http.StatusForbidden},
		{"underpaid", call{method: http.MethodPost, path: "/api/v1/veggies/plant", caller: alice, deposit: "9", body: map[string]any{"vsubtype": 1}}, http.StatusPaymentRequired},
		{"bad category", call{method: http.MethodPost, path: "/api/v1/veggies/plant", caller: alice, body: map[string]any{"vsubtype": 42}}, http.StatusBadRequest},
		{"empty pool", call{method: http.MethodPost, path: "/api/v1/veggies/plant", caller: alice, deposit: "20", body: map[string]any{"vsubtype": 2}}, http.StatusNotFound},
		{"bad deposit header", call{method: http.MethodGet, path: "/api/v1/seeds", deposit: "-1"}, http.StatusBadRequest},
		{"unknown veggie", call{method: http.MethodGet, path: "/api/v1/veggies/12345"}, http.StatusNotFound},
		{"malformed id", call{method: http.MethodGet, path: "/api/v1/veggies/abc"}, http.StatusBadRequest},
		{"unknown token owner", call{method: http.MethodGet, path: "/api/v1/tokens/77/owner"}, http.StatusNotFound},
		{"duplicate token", call{method: http.MethodPost, path: "/api/v1/tokens", caller: admin, body: map[string]any{"owner_id": bob, "token_id": plant.ID}}, http.StatusConflict},
		{"referenced plant", call{method: http.MethodDelete, path: "/api/v1/veggies/" + plant.ID, caller: admin}, http.StatusConflict},
		{"bad kind filter", call{method: http.MethodGet, path: "/api/v1/owners/" + alice + "/veggies?vtype=3"}, http.StatusBadRequest},
		{"bad page", call{method: http.MethodGet, path: "/api/v1/veggies?page=70000"}, http.StatusBadRequest},
		{"method", call{method: http.MethodPatch, path: "/api/v1/seeds"}, http.StatusMethodNotAllowed},
		{"unknown route", call{method: http.MethodGet, path: "/api/v1/orchards"}, http.StatusNotFound},
		{"missing new owner", call{method: http.MethodPost, path: "/api/v1/tokens/" + plant.ID + "/transfer", caller: alice, body: map[string]any{}}, http.StatusBadRequest},
		{"intake needs multipart", call{method: http.MethodPost, path: "/api/v1/seeds/intake", caller: admin, body: map[string]any{}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, h, tt.call)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())
			require.NotEmpty(t, decode[errorResponse](t, resp).Error)
		})
	}
}

func TestHandlerMintTokenAdminOnly(t *testing.T) {
	_, h, _ := setupHandler(t, nil)
	body := map[string]any{"owner_id": bob, "token_id": "18446744073709551615"}
	require.Equal(t, http.StatusForbidden, do(t, h, call{method: http.MethodPost, path: "/api/v1/tokens", caller: alice, body: body}).Code)
	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/tokens", caller: admin, body: body})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/tokens/18446744073709551615/owner"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, bob, decode[map[string]string](t, resp)["owner_id"])
}

func TestHandlerPrices(t *testing.T) {
	svc, h, _ := setupHandler(t, nil)
	resp := do(t, h, call{method: http.MethodGet, path: "/api/v1/prices"})
	require.Equal(t, http.StatusOK, resp.Code)
	prices := decode[map[string]core.PriceTable](t, resp)["prices"]
	require.Equal(t, domain.Balance(30), prices.Plant[domain.CategoryMoney])

	update := map[string]any{"plant": map[string]uint64{"1": 1}, "harvest": map[string]uint64{"1": 2}}
	require.Equal(t, http.StatusForbidden, do(t, h, call{method: http.MethodPut, path: "/api/v1/prices", caller: alice, body: update}).Code)
	resp = do(t, h, call{method: http.MethodPut, path: "/api/v1/prices", caller: admin, body: update})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, domain.Balance(1), svc.Prices().Plant[domain.CategoryOracle])
	require.Zero(t, svc.Prices().Plant[domain.CategoryMoney])

	invalid := map[string]any{"plant": map[string]uint64{"9": 1}}
	require.Equal(t, http.StatusBadRequest, do(t, h, call{method: http.MethodPut, path: "/api/v1/prices", caller: admin, body: invalid}).Code)
}

type rejectTransfers struct{}

func (rejectTransfers) Name() string { return "frozen_ledger" }

func (rejectTransfers) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, c := range changes {
		if c.Entity == domain.EntityToken && c.Action == domain.ActionUpdate {
			res.Violations = append(res.Violations, domain.Violation{
				Rule: "frozen_ledger", Severity: domain.SeverityBlock, Message: "transfers are frozen", Entity: domain.EntityToken,
			})
		}
	}
	return res, nil
}

func TestHandlerRuleViolation(t *testing.T) {
	engine := core.NewDefaultRulesEngine()
	engine.Register(rejectTransfers{})
	_, h, _ := setupHandler(t, engine)
	createSeed(t, h, domain.KindPlant, domain.CategoryOracle)
	plant := mintPlant(t, h, alice, domain.CategoryOracle, 10)

	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/tokens/" + plant.ID + "/transfer", caller: alice,
		body: map[string]any{"new_owner_id": bob}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
	body := decode[errorResponse](t, resp)
	require.Len(t, body.Violations, 1)
	require.Equal(t, "frozen_ledger", body.Violations[0].Rule)

	resp = do(t, h, call{method: http.MethodGet, path: "/api/v1/tokens/" + plant.ID + "/owner"})
	require.Equal(t, alice, decode[map[string]string](t, resp)["owner_id"])
}

func TestHandlerIntake(t *testing.T) {
	svc, h, store := setupHandler(t, nil)
	art := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{7}, 32)...)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for field, value := range map[string]string{
		"vtype": "plant", "vsubtype": "portrait", "rarity": "2.5", "edition": "7",
		"name": "Mirror Moss", "artist": "arty", "seeded_on": "2021-05-01",
	} {
		require.NoError(t, form.WriteField(field, value))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="moss.png"`)
	header.Set("Content-Type", "image/png")
	part, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(art)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seeds/intake", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set(api.HeaderAccount, admin)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	out := decode[map[string]any](t, resp)
	metaKey, _ := out["metadata_key"].(string)
	require.NotEmpty(t, metaKey)
	ids, ok := svc.CandidateIDs(context.Background(), domain.KindPlant, domain.CategoryPortrait)
	require.True(t, ok)
	require.Len(t, ids, 1)
	seed, _ := svc.GetSeed(context.Background(), ids[0])
	require.Equal(t, metaKey, seed.Descriptor)
	require.Equal(t, uint32(7), seed.Edition)

	md, err := intake.New(store, svc).FetchMetadata(context.Background(), metaKey)
	require.NoError(t, err)
	require.Equal(t, "Mirror Moss", md.Name)
	require.Equal(t, "2021-05-01", md.SeededOn)
}

func TestHandlerWithoutIntake(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithAdmins(admin))
	h := api.NewHandler(svc)
	resp := do(t, h, call{method: http.MethodPost, path: "/api/v1/seeds/intake", caller: admin})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestOpenAPIDocument(t *testing.T) {
	_, h, _ := setupHandler(t, nil)
	rec := do(t, h, call{method: http.MethodGet, path: "/api/v1/openapi.yaml"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	require.Equal(t, api.OpenAPISpec(), rec.Body.Bytes())
	for _, path := range []string{"/seeds/intake:", "/veggies/{id}/harvest:", "/tokens/{id}/transfer:", "/prices:"} {
		require.Contains(t, rec.Body.String(), path)
	}

	rec = do(t, h, call{method: http.MethodPost, path: "/api/v1/openapi.yaml"})
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	spec := api.OpenAPISpec()
	spec[0] ^= 0xFF
	require.NotEqual(t, spec, api.OpenAPISpec())
}
