package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dinner-theater-booking/internal/kvstore"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

func decode(t *testing.T, s string) Document {
	t.Helper()
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestLoad_LegacyWeekendPrices(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	legacy := `{"prices":{"weekend":{"standard":80,"premium":95}},"showTypes":[{"name":"Weekend Show"}]}`
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(legacy)))

	cfg := Load(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.Nop())

	require.Len(t, cfg.ShowTypes, 1)
	assert.Equal(t, "Weekend Show", cfg.ShowTypes[0].Name)
	assert.Equal(t, 80.0, cfg.ShowTypes[0].PriceStandard)
	assert.Equal(t, 95.0, cfg.ShowTypes[0].PricePremium)
	assert.Equal(t, model.CurrentSchemaVersion, cfg.SchemaVersion)
	assert.Equal(t, model.DefaultConfig().Prices, cfg.Prices)
}

func TestMigrate_LegacyTables(t *testing.T) {
	doc := decode(t, `{
		"prices": {
			"weekday": {"standard": 60, "premium": 75},
			"weekend": {"standard": 80, "premium": 95},
			"preShowDrinks": 12
		},
		"showTypes": [
			{"name": "Doordeweekse Show"},
			{"name": "Grote Weekend Show"},
			{"name": "Zorgzame Helden Show"}
		]
	}`)

	applied, err := Migrate(doc, Chain)
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy-price-tables", "promo-code-defaults"}, applied)

	types := doc["showTypes"].([]any)
	assert.Equal(t, 60.0, types[0].(map[string]any)["priceStandard"])
	assert.Equal(t, 95.0, types[1].(map[string]any)["pricePremium"])
	// no zorgHeld table: fallback prices
	assert.Equal(t, 70.0, types[2].(map[string]any)["priceStandard"])
	assert.Equal(t, 85.0, types[2].(map[string]any)["pricePremium"])

	prices := doc["prices"].(map[string]any)
	assert.NotContains(t, prices, "weekday")
	assert.NotContains(t, prices, "weekend")
	assert.Equal(t, 12.0, prices["preShowDrinks"])
	assert.Equal(t, model.CurrentSchemaVersion, Version(doc))
}

func TestMigrate_SkipsWhenPricesAlreadyOnTypes(t *testing.T) {
	doc := decode(t, `{
		"prices": {"weekend": {"standard": 80, "premium": 95}},
		"showTypes": [{"name": "Weekend Show", "priceStandard": 99, "pricePremium": 120}]
	}`)

	_, err := Migrate(doc, Chain)
	require.NoError(t, err)

	st := doc["showTypes"].([]any)[0].(map[string]any)
	assert.Equal(t, 99.0, st["priceStandard"])
	assert.Contains(t, doc["prices"].(map[string]any), "weekend")
}

func TestMigrate_RunsAtMostOnce(t *testing.T) {
	doc := decode(t, `{
		"prices": {"weekend": {"standard": 80, "premium": 95}},
		"showTypes": [{"name": "Weekend Show"}],
		"promoCodes": [{"code": "OUD", "value": 10}]
	}`)

	first, err := Migrate(doc, Chain)
	require.NoError(t, err)
	require.Len(t, first, 2)

	snapshot, err := json.Marshal(doc)
	require.NoError(t, err)

	second, err := Migrate(doc, Chain)
	require.NoError(t, err)
	assert.Empty(t, second)

	again, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(snapshot), string(again))
}

func TestMigrate_BackfillsPromoCodes(t *testing.T) {
	doc := decode(t, `{"schemaVersion": 1, "promoCodes": [
		{"code": "OUD", "value": 10},
		{"code": "PCT", "type": "percentage", "value": 10, "isActive": false}
	]}`)

	applied, err := Migrate(doc, Chain)
	require.NoError(t, err)
	assert.Equal(t, []string{"promo-code-defaults"}, applied)

	cfg, errs := Merge(model.DefaultConfig(), doc)
	require.Empty(t, errs)
	require.Len(t, cfg.PromoCodes, 2)
	assert.Equal(t, model.DiscountFixed, cfg.PromoCodes[0].Type)
	assert.True(t, cfg.PromoCodes[0].IsActive)
	assert.Equal(t, model.DiscountPercentage, cfg.PromoCodes[1].Type)
	assert.False(t, cfg.PromoCodes[1].IsActive)
}

func TestMigrate_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	chain := []Migration{
		{From: 0, Name: "ok", Apply: func(Document) error { return nil }},
		{From: 1, Name: "bad", Apply: func(Document) error { return boom }},
	}
	doc := Document{}

	applied, err := Migrate(doc, chain)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ok"}, applied)
	assert.Equal(t, 1, Version(doc))
}

func TestMerge_PartialDocument(t *testing.T) {
	defaults := model.DefaultConfig()
	doc := decode(t, `{
		"showNames": ["Zomer Revue"],
		"bookingRules": {"maxGuests": 20},
		"prices": {"cap": 25}
	}`)

	cfg, errs := Merge(defaults, doc)
	require.Empty(t, errs)

	assert.Equal(t, []string{"Zomer Revue"}, cfg.ShowNames)
	assert.Equal(t, defaults.ShowTypes, cfg.ShowTypes)
	assert.Equal(t, 20, cfg.BookingRules.MaxGuests)
	assert.Equal(t, defaults.BookingRules.MinGuests, cfg.BookingRules.MinGuests)
	assert.Equal(t, 25.0, cfg.Prices.Cap)
	assert.Equal(t, defaults.Prices.PreShowDrinks, cfg.Prices.PreShowDrinks)
}

func TestMerge_EmptyArrayReplacesDefault(t *testing.T) {
	cfg, errs := Merge(model.DefaultConfig(), decode(t, `{"promoCodes": []}`))
	require.Empty(t, errs)
	assert.Empty(t, cfg.PromoCodes)
}

func TestMerge_MalformedFieldKeepsDefault(t *testing.T) {
	defaults := model.DefaultConfig()
	doc := decode(t, `{"showNames": "oops", "bookingRules": 7, "prices": {"cap": "x", "afterParty": 18}}`)

	cfg, errs := Merge(defaults, doc)
	assert.Len(t, errs, 3)
	assert.Equal(t, defaults.ShowNames, cfg.ShowNames)
	assert.Equal(t, defaults.BookingRules, cfg.BookingRules)
	assert.Equal(t, defaults.Prices.Cap, cfg.Prices.Cap)
	assert.Equal(t, 18.0, cfg.Prices.AfterParty)
}

func TestMerge_Idempotent(t *testing.T) {
	defaults := model.DefaultConfig()
	inputs := []string{
		`{}`,
		`{"showNames": ["A"], "prices": {"cap": 30}}`,
		`{"showTypes": [{"name": "Matinee", "defaultCapacity": 90, "priceStandard": 40, "pricePremium": 50}], "vouchers": [{"code": "KADO", "value": 25, "isActive": true}]}`,
		`{"bookingRules": {"enforceCapacity": true, "cutoffHours": 0}, "capSlogans": [{"id": "c1", "label": "Bravo"}]}`,
	}
	for _, in := range inputs {
		once, errs := Merge(defaults, decode(t, in))
		require.Empty(t, errs, in)

		doc, err := ToDocument(once)
		require.NoError(t, err)
		twice, errs := Merge(defaults, doc)
		require.Empty(t, errs, in)

		assert.Equal(t, once, twice, in)
	}
}

func TestMerge_DoesNotAliasDefaults(t *testing.T) {
	defaults := model.DefaultConfig()
	cfg, _ := Merge(defaults, Document{})
	cfg.ShowTypes[0].PriceStandard = 1

	assert.Equal(t, 70.0, defaults.ShowTypes[0].PriceStandard)
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	for name, blob := range map[string]string{
		"corrupt":   `{not json`,
		"array":     `[1,2,3]`,
		"string":    `"hello"`,
		"json null": `null`,
		"empty":     ``,
	} {
		t.Run(name, func(t *testing.T) {
			store := kvstore.NewMemory()
			require.NoError(t, store.Set(ctx, DefaultKey, []byte(blob)))
			cfg := Load(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.Nop())
			assert.Equal(t, model.DefaultConfig(), cfg)
		})
	}
}

func TestWholeVersion(t *testing.T) {
	assert.True(t, WholeVersion(Document{}))
	assert.True(t, WholeVersion(decode(t, `{"schemaVersion":2}`)))
	assert.True(t, WholeVersion(Document{"schemaVersion": 1}))
	assert.False(t, WholeVersion(decode(t, `{"schemaVersion":1.5}`)))
	assert.False(t, WholeVersion(decode(t, `{"schemaVersion":"two"}`)))
	assert.False(t, WholeVersion(decode(t, `{"schemaVersion":null}`)))
}

func TestLoad_WarnsOnOddSchemaVersion(t *testing.T) {
	ctx := context.Background()
	for name, blob := range map[string]string{
		"fraction": `{"schemaVersion":1.5}`,
		"string":   `{"schemaVersion":"two"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			store := kvstore.NewMemory()
			require.NoError(t, store.Set(ctx, DefaultKey, []byte(blob)))
			Load(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.New(&buf))
			assert.Contains(t, buf.String(), "schemaVersion is not a whole number")
		})
	}

	var buf bytes.Buffer
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`{"schemaVersion":2}`)))
	Load(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.New(&buf))
	assert.NotContains(t, buf.String(), "whole number")
}

func TestLoad_MissingKey(t *testing.T) {
	cfg := Load(context.Background(), kvstore.NewMemory(), DefaultKey, model.DefaultConfig(), zerolog.Nop())
	assert.Equal(t, model.DefaultConfig(), cfg)
}

type brokenStore struct{ getErr, setErr error }

func (b brokenStore) Get(context.Context, string) ([]byte, error) { return nil, b.getErr }
func (b brokenStore) Set(context.Context, string, []byte) error   { return b.setErr }

func TestLoad_UnreadableStore(t *testing.T) {
	store := brokenStore{getErr: errors.New("disk on fire")}
	cfg := Load(context.Background(), store, DefaultKey, model.DefaultConfig(), zerolog.Nop())
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	cfg := model.DefaultConfig()
	cfg.Vouchers = append(cfg.Vouchers, model.Voucher{Code: "KADO50", Value: 50, IsActive: true})
	cfg.BookingRules.EnforceCapacity = true

	require.NoError(t, Save(ctx, store, DefaultKey, cfg))
	assert.Equal(t, cfg, Load(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.Nop()))
}

func TestManager_UpdateWritesThrough(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	m := Open(ctx, store, "", model.DefaultConfig(), zerolog.Nop())
	assert.Equal(t, model.DefaultConfig(), m.Current())

	updated, err := m.Update(ctx, func(c *model.AppConfig) error {
		c.ShowNames = append(c.ShowNames, "Zomer Revue")
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, updated.ShowNames, "Zomer Revue")
	assert.Equal(t, updated, m.Current())

	reloaded := Load(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.Nop())
	assert.Equal(t, updated, reloaded)
}

func TestManager_RejectedUpdateKeepsState(t *testing.T) {
	ctx := context.Background()
	m := Open(ctx, kvstore.NewMemory(), DefaultKey, model.DefaultConfig(), zerolog.Nop())

	_, err := m.Update(ctx, func(c *model.AppConfig) error {
		c.BookingRules.MinGuests = 30
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	stop := errors.New("stop")
	_, err = m.Update(ctx, func(c *model.AppConfig) error {
		c.ShowNames = nil
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, model.DefaultConfig(), m.Current())
}

func TestManager_WriteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	store := brokenStore{getErr: kvstore.ErrNotFound, setErr: errors.New("read-only")}
	m := Open(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.Nop())

	_, err := m.Update(ctx, func(c *model.AppConfig) error {
		c.Prices.Cap = 22.5
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 22.5, m.Current().Prices.Cap)
}

func TestManager_OpenPersistsMigration(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`{"prices":{"weekend":{"standard":80,"premium":95}},"showTypes":[{"name":"Weekend Show"}]}`)))

	Open(ctx, store, DefaultKey, model.DefaultConfig(), zerolog.Nop())

	raw, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	doc := decode(t, string(raw))
	assert.Equal(t, model.CurrentSchemaVersion, Version(doc))
	assert.NotContains(t, doc["prices"].(map[string]any), "weekend")
}

func TestManager_CurrentIsACopy(t *testing.T) {
	m := Open(context.Background(), kvstore.NewMemory(), DefaultKey, model.DefaultConfig(), zerolog.Nop())
	c := m.Current()
	c.PromoCodes[0].Value = 999
	assert.Equal(t, 50.0, m.Current().PromoCodes[0].Value)
}
