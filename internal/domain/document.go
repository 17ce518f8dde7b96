package domain

// HistoryLimit bounds the dedup histories kept in the document.
const HistoryLimit = 100

// Document is the persisted monitor state. Field order matches the on-disk layout.
type Document struct {
	LastArticleID      string            `json:"last_article_id"`
	LastVersionID      string            `json:"last_version_id"`
	LastServicesStatus map[string]string `json:"last_services_status"`
	NotifiedArticles   []string          `json:"notified_articles"`
	NotifiedVersions   []string          `json:"notified_versions"`
}

// NewDocument returns the document written on first start.
func NewDocument() Document {
	return Document{
		LastServicesStatus: map[string]string{},
		NotifiedArticles:   []string{},
		NotifiedVersions:   []string{},
	}
}

// Normalize replaces nil collections so the document always serializes as {}
// and [], and bounds both histories the way AppendHistory does.
func (d *Document) Normalize() {
	d.NotifiedArticles = boundHistory(d.NotifiedArticles, HistoryLimit)
	d.NotifiedVersions = boundHistory(d.NotifiedVersions, HistoryLimit)
	if d.LastServicesStatus == nil {
		d.LastServicesStatus = map[string]string{}
	}
	if d.NotifiedArticles == nil {
		d.NotifiedArticles = []string{}
	}
	if d.NotifiedVersions == nil {
		d.NotifiedVersions = []string{}
	}
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	out := Document{
		LastArticleID:      d.LastArticleID,
		LastVersionID:      d.LastVersionID,
		LastServicesStatus: make(map[string]string, len(d.LastServicesStatus)),
		NotifiedArticles:   append([]string{}, d.NotifiedArticles...),
		NotifiedVersions:   append([]string{}, d.NotifiedVersions...),
	}
	for k, v := range d.LastServicesStatus {
		out.LastServicesStatus[k] = v
	}
	return out
}

// AppendHistory adds id when absent and keeps the most recent limit entries.
// An id already present keeps its position.
func AppendHistory(history []string, id string, limit int) []string {
	found := false
	for _, existing := range history {
		if existing == id {
			found = true
			break
		}
	}
	if !found {
		history = append(history, id)
	}
	if limit > 0 && len(history) > limit {
		history = append([]string{}, history[len(history)-limit:]...)
	}
	return history
}

// boundHistory drops repeated ids, keeping the first occurrence, then keeps
// the most recent limit entries.
func boundHistory(history []string, limit int) []string {
	if history == nil {
		return nil
	}
	seen := make(map[string]bool, len(history))
	out := make([]string, 0, len(history))
	for _, id := range history {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
