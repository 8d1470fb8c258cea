package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"salesreport/internal/model"
	"salesreport/internal/store"
)

func sampleTables() map[string]*model.Table {
	dec := decimal.NewFromInt
	return model.BuildTables(
		[]model.SalesRecord{
			{Country: model.CountryFR, ProductID: "P1", Year: 2019, Revenue: dec(100)},
			{Country: model.CountryDE, ProductID: "P1", Year: 2019, Revenue: dec(80)},
		},
		[]model.CostRecord{{ProductID: "P1", CostByCountry: map[model.Country]decimal.Decimal{model.CountryFR: dec(10)}}},
		[]model.ProductReference{{ProductID: "P1", DisplayName: "Alpha"}},
	)
}

func TestLoad_AllTablesIntoSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, err := store.Open(ctx, store.Options{Driver: store.DriverSQLite, DSN: store.DefaultDSN(store.DriverSQLite, uuid.NewString())})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	var events []ProgressEvent
	report := NewCoordinator(st, zap.NewNop()).Load(ctx, sampleTables(), LoadOptions{
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})

	if report.TotalTables != 5 || report.LoadedTables != 5 || report.FailedTables != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.LoadedRows != 4 {
		t.Fatalf("loaded rows=%d, want 4", report.LoadedRows)
	}
	if report.Tables[0].Table != model.TableSalesFR || report.Tables[4].Table != model.TableProductReference {
		t.Fatalf("tables not loaded in canonical order: %+v", report.Tables)
	}
	if len(events) != 7 || events[0].Type != "start" || events[6].Type != "done" {
		t.Fatalf("unexpected progress events: %+v", events)
	}

	// 重复加载不产生重复行
	NewCoordinator(st, nil).Load(ctx, sampleTables(), LoadOptions{})
	n, err := st.CountRows(ctx, model.TableSalesFR)
	if err != nil || n != 1 {
		t.Fatalf("sales_fr rows after reload=%d err=%v", n, err)
	}
}

type flakyStore struct {
	failTable string
	loaded    []string
}

func (f *flakyStore) ReplaceTable(_ context.Context, t *model.Table) error {
	if t.Name == f.failTable {
		return errors.New("disk full")
	}
	f.loaded = append(f.loaded, t.Name)
	return nil
}

func TestLoad_PartialFailureContinues(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	fs := &flakyStore{failTable: model.TableCost}

	report := NewCoordinator(fs, zap.New(core)).Load(context.Background(), sampleTables(), LoadOptions{})

	if report.LoadedTables != 4 || report.FailedTables != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Loaded(model.TableCost) {
		t.Fatalf("cost should be reported as failed")
	}
	if !report.Loaded(model.TableProductReference) {
		t.Fatalf("product_reference loads after cost failure")
	}
	if len(fs.loaded) != 4 {
		t.Fatalf("loaded=%v", fs.loaded)
	}

	warnings := logs.FilterMessage("staging table load failed").All()
	if len(warnings) != 1 {
		t.Fatalf("warnings=%d, want 1", len(warnings))
	}
	if got := warnings[0].ContextMap()["table"]; got != model.TableCost {
		t.Fatalf("warning table field=%v", got)
	}
}
