package models

import (
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

// Platform is the app platform a download link targets.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformBoth    Platform = "both"
)

// ValidPlatform reports whether p is a known platform value.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformBoth:
		return true
	}
	return false
}

// DownloadLink is a time- and use-limited token granting app-install
// access for a License.
type DownloadLink struct {
	ID          string    `json:"id"`
	LicenseID   string    `json:"licenseId"`
	CondoID     string    `json:"condoId"`
	LinkToken   string    `json:"linkToken"`
	DownloadURL string    `json:"downloadUrl"`
	Platform    Platform  `json:"platform"`
	ExpiresAt   time.Time `json:"expiresAt"`
	MaxUses     int       `json:"maxUses"`
	CurrentUses int       `json:"currentUses"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
}

// Usable reports whether the link can still be redeemed: it must be
// active, under its use cap, AND not expired. A link at its cap is
// unusable no matter what the other two say.
func (l *DownloadLink) Usable(now time.Time) bool {
	if l.CurrentUses >= l.MaxUses {
		return false
	}
	return l.IsActive && now.Before(l.ExpiresAt)
}

func DownloadLinkFromRow(row backend.Row) *DownloadLink {
	return &DownloadLink{
		ID:          rowString(row, "id", ""),
		LicenseID:   rowString(row, "license_id", ""),
		CondoID:     rowString(row, "condo_id", ""),
		LinkToken:   rowString(row, "link_token", ""),
		DownloadURL: rowString(row, "download_url", ""),
		Platform:    Platform(rowString(row, "platform", string(PlatformBoth))),
		ExpiresAt:   rowTime(row, "expires_at"),
		MaxUses:     rowInt(row, "max_uses", 0),
		CurrentUses: rowInt(row, "current_uses", 0),
		IsActive:    rowBool(row, "is_active", true),
		CreatedAt:   rowTime(row, "created_at"),
		CreatedBy:   rowString(row, "created_by", ""),
	}
}
