package domain

import (
	"github.com/google/uuid"
)

// AliasRecord represents a stored alias and the URL it points to
type AliasRecord struct {
	ID    uuid.UUID `json:"id"`
	Alias string    `json:"alias"`
	URL   string    `json:"url"`
}

// ShortURL composes the public short URL for the record under the given domain
func (r *AliasRecord) ShortURL(domain string) string {
	return ShortURL(domain, r.Alias)
}

// ShortURL composes https://<domain>/<alias>
func ShortURL(domain, alias string) string {
	return "https://" + domain + "/" + alias
}
