package notify

import "context"

// PDFReadyNotifier delivers generation-ready notifications.
type PDFReadyNotifier interface {
	Send(ctx context.Context, evt PDFReadyEvent) error
}

// PDFReadyEvent mirrors go-notifications OnReadyEvent, but stays in go-pdfgen.
type PDFReadyEvent struct {
	Recipients       []string
	Channels         []string
	Locale           string
	TenantID         string
	ActorID          string
	FileName         string
	Format           string
	URL              string
	ExpiresAt        string
	Message          string
	ChannelOverrides map[string]map[string]any
	Attachments      []NotificationAttachment
}

// NotificationAttachment captures file payloads for notifications.
type NotificationAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
	Size        int64
}
