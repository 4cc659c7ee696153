package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"comment-radar/internal/model"

	"gopkg.in/yaml.v3"
)

// Item is one ranked comment as rendered in the digest.
type Item struct {
	Rank    string
	Content string
	Score   string
	Likes   string
	Replies string
	AgeDays string
	Pinned  bool
	Batch   string
}

// Data feeds the digest template.
type Data struct {
	Title string
	Items []Item
}

//go:embed report.tmpl
var reportTpl string

var compiled = template.Must(template.New("report").Parse(reportTpl))

// Render produces a markdown digest of the snapshot's top n items, with a
// YAML frontmatter block carrying the snapshot summary.
func Render(title string, snap model.Snapshot, n int) (string, error) {
	items := snap.Items
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	d := Data{Title: title, Items: make([]Item, 0, len(items))}
	for i, it := range items {
		d.Items = append(d.Items, Item{
			Rank:    fmt.Sprintf("%d", i+1),
			Content: it.Content,
			Score:   fmt.Sprintf("%.1f", it.FinalScore),
			Likes:   it.Likes,
			Replies: it.Replies,
			AgeDays: it.TimeAgoDays,
			Pinned:  it.IsPinned,
			Batch:   it.SourceBatch.UTC().Format("2006-01-02 15:04"),
		})
	}

	fm, err := yaml.Marshal(map[string]any{
		"title":        title,
		"generated_at": snap.GeneratedAt.UTC().Format(time.RFC3339),
		"total_items":  snap.Summary.TotalItems,
		"batches":      snap.Summary.SourceBatches,
		"min_score":    snap.Summary.MinScore,
		"max_score":    snap.Summary.MaxScore,
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	if err := compiled.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
