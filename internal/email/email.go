package email

import (
	"context"
	"log"
)

const sendLinksFunction = "send-download-links"

// Invoker is the slice of the backend client this bridge needs.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload any) (map[string]any, error)
}

// Bridge sends the download-link emails to a license's resident list.
// The actual SMTP work happens in a server-side function; this side
// only triggers it and reports the tally.
type Bridge struct {
	backend Invoker
}

func NewBridge(b Invoker) *Bridge {
	return &Bridge{backend: b}
}

// SendReport is the tally of a bulk send.
type SendReport struct {
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// SendDownloadLinks emails the license's resident list their download
// link. overrideURL, when set, replaces the stored link in the emails.
func (b *Bridge) SendDownloadLinks(ctx context.Context, licenseID, overrideURL string) (*SendReport, error) {
	payload := map[string]any{"licenseId": licenseID}
	if overrideURL != "" {
		payload["downloadUrl"] = overrideURL
	}

	data, err := b.backend.Invoke(ctx, sendLinksFunction, payload)
	if err != nil {
		return nil, err
	}

	report := &SendReport{Message: "E-mails enviados."}
	if v, ok := data["sent"].(float64); ok {
		report.Sent = int(v)
	}
	if v, ok := data["failed"].(float64); ok {
		report.Failed = int(v)
	}
	if v, ok := data["total"].(float64); ok {
		report.Total = int(v)
	}
	if v, ok := data["message"].(string); ok && v != "" {
		report.Message = v
	}

	if report.Failed > 0 {
		log.Printf("send-download-links: %d of %d emails failed for license %s", report.Failed, report.Total, licenseID)
	}
	return report, nil
}
