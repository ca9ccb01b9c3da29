package license

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
)

// memRows is an in-memory stand-in for the remote row store. Values are
// round-tripped through JSON so rows carry the same types the wire
// would (float64 numbers, []any slices).
type memRows struct {
	tables map[string][]backend.Row
	nextID int
}

func newMemRows() *memRows {
	return &memRows{tables: make(map[string][]backend.Row)}
}

func jsonRow(values backend.Row) backend.Row {
	data, _ := json.Marshal(values)
	row := backend.Row{}
	_ = json.Unmarshal(data, &row)
	return row
}

func matches(row backend.Row, filters map[string]string) bool {
	for col, want := range filters {
		if fmt.Sprintf("%v", row[col]) != want {
			return false
		}
	}
	return true
}

func (m *memRows) SelectRows(ctx context.Context, table string, filters map[string]string, order string) ([]backend.Row, error) {
	var out []backend.Row
	for _, row := range m.tables[table] {
		if matches(row, filters) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memRows) SelectRow(ctx context.Context, table string, filters map[string]string) (backend.Row, error) {
	for _, row := range m.tables[table] {
		if matches(row, filters) {
			return row, nil
		}
	}
	return nil, nil
}

func (m *memRows) InsertRow(ctx context.Context, table string, values backend.Row) (backend.Row, error) {
	m.nextID++
	row := jsonRow(values)
	if _, ok := row["id"]; !ok {
		row["id"] = fmt.Sprintf("%s-%d", table, m.nextID)
	}
	m.tables[table] = append(m.tables[table], row)
	return row, nil
}

func (m *memRows) UpdateRows(ctx context.Context, table string, filters map[string]string, values backend.Row) ([]backend.Row, error) {
	var out []backend.Row
	normalized := jsonRow(values)
	for _, row := range m.tables[table] {
		if matches(row, filters) {
			for k, v := range normalized {
				row[k] = v
			}
			out = append(out, row)
		}
	}
	return out, nil
}

func TestCreateAppliesPlanDefaults(t *testing.T) {
	svc := NewService(newMemRows())

	lic, err := svc.Create(context.Background(), CreateInput{
		CondoID:        "condo1",
		PlanType:       models.PlanPremium,
		DurationMonths: 12,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if lic.MaxUnits != 200 || lic.MaxUsers != 1000 {
		t.Errorf("Expected premium caps 200/1000, got %d/%d", lic.MaxUnits, lic.MaxUsers)
	}
	if lic.Amount != 599 {
		t.Errorf("Expected premium default amount 599, got %v", lic.Amount)
	}
	if lic.Currency != "BRL" {
		t.Errorf("Expected BRL, got %v", lic.Currency)
	}
	if lic.Status != models.LicenseActive {
		t.Errorf("Expected active status, got %v", lic.Status)
	}
	if lic.CreatedBy != "system" {
		t.Errorf("Expected createdBy to default to system, got %q", lic.CreatedBy)
	}
	if !strings.HasPrefix(lic.LicenseKey, "LIC-") || !strings.HasPrefix(lic.ContractNumber, "CT-") {
		t.Errorf("Expected display codes, got %q / %q", lic.LicenseKey, lic.ContractNumber)
	}

	wantExpiry := time.Now().AddDate(0, 12, 0)
	if diff := lic.ExpiryDate.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected expiry ~12 months out, got %v", lic.ExpiryDate)
	}
	if lic.NextPaymentDate == nil || !lic.NextPaymentDate.Equal(lic.ExpiryDate) {
		t.Errorf("Expected next payment date to equal expiry, got %v", lic.NextPaymentDate)
	}
}

func TestCreateTrialStatus(t *testing.T) {
	svc := NewService(newMemRows())

	days := 14
	lic, err := svc.Create(context.Background(), CreateInput{
		CondoID:        "condo1",
		PlanType:       models.PlanBasic,
		DurationMonths: 1,
		IsTrial:        true,
		TrialDays:      &days,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if lic.Status != models.LicenseTrial {
		t.Errorf("Expected trial status, got %v", lic.Status)
	}
	if !lic.IsTrial {
		t.Error("Expected isTrial true")
	}
}

func TestCreateRejectsZeroDuration(t *testing.T) {
	svc := NewService(newMemRows())
	if _, err := svc.Create(context.Background(), CreateInput{CondoID: "condo1", PlanType: models.PlanBasic}); err == nil {
		t.Fatal("Expected an error for zero duration")
	}
}

func seedLicense(t *testing.T, rows *memRows, svc *Service) *models.License {
	t.Helper()
	lic, err := svc.Create(context.Background(), CreateInput{
		CondoID:        "condo1",
		PlanType:       models.PlanBasic,
		DurationMonths: 12,
		Notes:          "Observação inicial",
	})
	if err != nil {
		t.Fatalf("seed Create failed: %v", err)
	}
	return lic
}

func TestRenewExtendsFromCurrentExpiry(t *testing.T) {
	rows := newMemRows()
	svc := NewService(rows)
	lic := seedLicense(t, rows, svc)

	// Pin the stored expiry so the extension base is exact.
	expiry := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	rows.UpdateRows(context.Background(), "licenses",
		map[string]string{"id": lic.ID},
		backend.Row{"expiry_date": expiry.Format(time.RFC3339)})

	renewed, err := svc.Renew(context.Background(), lic.ID, 6)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}

	want := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	if !renewed.ExpiryDate.Equal(want) {
		t.Errorf("Expected expiry %v, got %v", want, renewed.ExpiryDate)
	}
	if renewed.PaymentStatus != models.PaymentPending {
		t.Errorf("Expected payment reset to pending, got %v", renewed.PaymentStatus)
	}
	if renewed.NextPaymentDate == nil || !renewed.NextPaymentDate.Equal(want) {
		t.Errorf("Expected next payment at new expiry, got %v", renewed.NextPaymentDate)
	}
	if renewed.Status != models.LicenseActive {
		t.Errorf("Expected active after renew, got %v", renewed.Status)
	}
}

func TestRenewRejectsZeroMonths(t *testing.T) {
	rows := newMemRows()
	svc := NewService(rows)
	lic := seedLicense(t, rows, svc)

	if _, err := svc.Renew(context.Background(), lic.ID, 0); err == nil {
		t.Fatal("Expected an error for zero additional months")
	}
}

func TestSuspendAppendsReasonAndIsIdempotent(t *testing.T) {
	rows := newMemRows()
	svc := NewService(rows)
	lic := seedLicense(t, rows, svc)

	first, err := svc.Suspend(context.Background(), lic.ID, "inadimplência")
	if err != nil {
		t.Fatalf("Suspend failed: %v", err)
	}
	if first.IsActive {
		t.Error("Expected isActive false after suspend")
	}
	if first.Status != models.LicenseSuspended {
		t.Errorf("Expected suspended status, got %v", first.Status)
	}
	if !strings.Contains(first.Notes, "Observação inicial") {
		t.Error("Expected the original notes to be preserved")
	}
	if !strings.Contains(first.Notes, "[Suspenso: inadimplência]") {
		t.Errorf("Expected the reason appended, got %q", first.Notes)
	}

	second, err := svc.Suspend(context.Background(), lic.ID, "nova razão")
	if err != nil {
		t.Fatalf("Second Suspend failed: %v", err)
	}
	if second.Status != models.LicenseSuspended {
		t.Errorf("Expected suspended to stay suspended, got %v", second.Status)
	}
	if got := strings.Count(second.Notes, "[Suspenso:"); got != 2 {
		t.Errorf("Expected exactly two appended reasons, got %d in %q", got, second.Notes)
	}
}

func TestActivateRespectsExpiry(t *testing.T) {
	rows := newMemRows()
	svc := NewService(rows)
	lic := seedLicense(t, rows, svc)

	if _, err := svc.Suspend(context.Background(), lic.ID, ""); err != nil {
		t.Fatalf("Suspend failed: %v", err)
	}
	activated, err := svc.Activate(context.Background(), lic.ID)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if !activated.IsActive || activated.Status != models.LicenseActive {
		t.Fatalf("Expected an active license, got isActive=%v status=%v", activated.IsActive, activated.Status)
	}

	// Push the expiry into the past: activation must not resurrect it.
	past := time.Now().AddDate(0, -1, 0).UTC().Format(time.RFC3339)
	rows.UpdateRows(context.Background(), "licenses",
		map[string]string{"id": lic.ID},
		backend.Row{"expiry_date": past})

	activated, err = svc.Activate(context.Background(), lic.ID)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if activated.Status != models.LicenseExpired {
		t.Errorf("Expected expired status for a past expiry, got %v", activated.Status)
	}
}

func TestGetByIDEnrichesSyndicEmail(t *testing.T) {
	rows := newMemRows()
	svc := NewService(rows)
	rows.InsertRow(context.Background(), "condos", backend.Row{
		"id":          "condo1",
		"name":        "Residencial Aurora",
		"admin_email": "sindico@aurora.com",
	})
	lic := seedLicense(t, rows, svc)

	got, err := svc.GetByID(context.Background(), lic.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SyndicEmail != "sindico@aurora.com" {
		t.Errorf("Expected syndic email enrichment, got %q", got.SyndicEmail)
	}
}

func TestGetByIDReconcilesExpiredStatus(t *testing.T) {
	rows := newMemRows()
	svc := NewService(rows)
	lic := seedLicense(t, rows, svc)

	past := time.Now().AddDate(0, -1, 0).UTC().Format(time.RFC3339)
	rows.UpdateRows(context.Background(), "licenses",
		map[string]string{"id": lic.ID},
		backend.Row{"expiry_date": past})

	got, err := svc.GetByID(context.Background(), lic.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.LicenseExpired {
		t.Errorf("Expected lazy expiry on read, got %v", got.Status)
	}

	// The correction is in-memory only; the stored row is untouched.
	row, _ := rows.SelectRow(context.Background(), "licenses", map[string]string{"id": lic.ID})
	if row["status"] != string(models.LicenseActive) {
		t.Errorf("Expected the stored status unchanged, got %v", row["status"])
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewService(newMemRows())
	if _, err := svc.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
