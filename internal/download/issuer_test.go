package download

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

// memRows is an in-memory stand-in for the remote row store.
type memRows struct {
	rows   []backend.Row
	nextID int
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
	for _, row := range m.rows {
		if matches(row, filters) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memRows) InsertRow(ctx context.Context, table string, values backend.Row) (backend.Row, error) {
	m.nextID++
	row := jsonRow(values)
	row["id"] = fmt.Sprintf("link-%d", m.nextID)
	m.rows = append(m.rows, row)
	return row, nil
}

func (m *memRows) UpdateRows(ctx context.Context, table string, filters map[string]string, values backend.Row) ([]backend.Row, error) {
	var out []backend.Row
	normalized := jsonRow(values)
	for _, row := range m.rows {
		if matches(row, filters) {
			for k, v := range normalized {
				row[k] = v
			}
			out = append(out, row)
		}
	}
	return out, nil
}

func TestGenerateDefaults(t *testing.T) {
	issuer := NewIssuer(&memRows{}, "https://conectacond.site/")

	link, err := issuer.Generate(context.Background(), GenerateInput{
		LicenseID: "lic1",
		CondoID:   "condo1",
		Platform:  models.PlatformBoth,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if link.MaxUses != 100 {
		t.Errorf("Expected default max uses 100, got %d", link.MaxUses)
	}
	if link.CurrentUses != 0 {
		t.Errorf("Expected zero uses, got %d", link.CurrentUses)
	}
	if !link.IsActive {
		t.Error("Expected a fresh link to be active")
	}

	wantExpiry := time.Now().AddDate(0, 0, 30)
	if diff := link.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected expiry ~30 days out, got %v", link.ExpiresAt)
	}

	if !strings.HasPrefix(link.LinkToken, "DL-") {
		t.Errorf("Expected a DL- token, got %q", link.LinkToken)
	}
	if !strings.HasPrefix(link.DownloadURL, "https://conectacond.site/download?") {
		t.Errorf("Expected the portal download URL, got %q", link.DownloadURL)
	}
	if !strings.Contains(link.DownloadURL, "token="+link.LinkToken) {
		t.Errorf("Expected the token in the URL, got %q", link.DownloadURL)
	}
}

func TestGenerateTokensAreUnique(t *testing.T) {
	issuer := NewIssuer(&memRows{}, "https://conectacond.site")

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		link, err := issuer.Generate(context.Background(), GenerateInput{
			LicenseID: "lic1",
			Platform:  models.PlatformAndroid,
		})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if seen[link.LinkToken] {
			t.Fatalf("Duplicate token %q", link.LinkToken)
		}
		seen[link.LinkToken] = true
	}
}

func TestGenerateRejectsUnknownPlatform(t *testing.T) {
	issuer := NewIssuer(&memRows{}, "https://conectacond.site")
	if _, err := issuer.Generate(context.Background(), GenerateInput{
		LicenseID: "lic1",
		Platform:  "windows",
	}); err == nil {
		t.Fatal("Expected an error for an unknown platform")
	}
}

func TestRevokeAndReactivate(t *testing.T) {
	rows := &memRows{}
	issuer := NewIssuer(rows, "https://conectacond.site")

	link, err := issuer.Generate(context.Background(), GenerateInput{
		LicenseID: "lic1",
		Platform:  models.PlatformIOS,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if err := issuer.Revoke(context.Background(), link.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	links, _ := issuer.List(context.Background(), "lic1")
	if len(links) != 1 || links[0].IsActive {
		t.Fatalf("Expected one inactive link, got %+v", links)
	}

	if err := issuer.Reactivate(context.Background(), link.ID); err != nil {
		t.Fatalf("Reactivate failed: %v", err)
	}
	links, _ = issuer.List(context.Background(), "lic1")
	if !links[0].IsActive {
		t.Error("Expected the link active again")
	}
	if links[0].CurrentUses != link.CurrentUses || !links[0].ExpiresAt.Equal(link.ExpiresAt) {
		t.Error("Reactivation must not reset usage or expiry")
	}
}

func TestRevokeUnknownLink(t *testing.T) {
	issuer := NewIssuer(&memRows{}, "https://conectacond.site")
	if err := issuer.Revoke(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUsable(t *testing.T) {
	now := time.Now()
	link := &models.DownloadLink{
		IsActive:    true,
		ExpiresAt:   now.Add(24 * time.Hour),
		MaxUses:     3,
		CurrentUses: 0,
	}

	if !link.Usable(now) {
		t.Error("Expected a fresh link to be usable")
	}

	link.CurrentUses = 3
	if link.Usable(now) {
		t.Error("Expected a link at its cap to be unusable even while active and unexpired")
	}

	link.CurrentUses = 1
	link.IsActive = false
	if link.Usable(now) {
		t.Error("Expected a revoked link to be unusable")
	}

	link.IsActive = true
	link.ExpiresAt = now.Add(-time.Minute)
	if link.Usable(now) {
		t.Error("Expected an expired link to be unusable")
	}
}
