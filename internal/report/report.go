// Package report renders change sets and the current inventory into a self-contained HTML document.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/Houeta/stock-flow/internal/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

const (
	colorPartial   = "#ffb347"
	colorAvailable = "#77dd77"
	colorSoldOut   = "#ff6961"
	colorRemoved   = "#cccccc"

	sectionRemoved = "removed"
	none           = "None"
)

// section describes one table of the report, in render order.
type section struct {
	Key   string
	Title string
	Color string
	Rows  []row
}

type row struct {
	ID        string
	Name      string
	URL       string
	Change    string
	Available string
	SoldOut   string
	Changed   string
	Price     string
}

type document struct {
	Title     string
	Summary   string
	Sections  []section
	Inventory []section
}

// Renderer turns change records into a report. It does no I/O.
type Renderer struct {
	storeName string
	tmpl      *template.Template
}

// NewRenderer parses the embedded template for the given store.
func NewRenderer(storeName string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	if strings.TrimSpace(storeName) == "" {
		storeName = "Store"
	}

	return &Renderer{storeName: storeName, tmpl: tmpl}, nil
}

// Render builds the report for the given changes followed by the full inventory view of
// current. Every change section is always present; an empty one holds a single "None." row.
// The inventory view is omitted when current is empty.
func (r *Renderer) Render(changes []models.ChangeRecord, current models.InventorySnapshot) (models.Report, error) {
	const opn = "report.Render"

	doc := document{
		Title:     r.storeName + " Daily Stock Report",
		Summary:   summary(changes),
		Sections:  buildSections(changes),
		Inventory: buildInventory(current),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return models.Report{}, fmt.Errorf("%s: failed to execute template: %w", opn, err)
	}

	text, err := PlainText(buf.String())
	if err != nil {
		return models.Report{}, fmt.Errorf("%s: %w", opn, err)
	}

	return models.Report{
		Subject: Subject(r.storeName, len(changes)),
		HTML:    buf.String(),
		Text:    text,
		Changes: changes,
	}, nil
}

// Subject returns the email subject for n changes.
func Subject(storeName string, n int) string {
	if n == 1 {
		return fmt.Sprintf("%s stock report: 1 change", storeName)
	}

	return fmt.Sprintf("%s stock report: %d changes", storeName, n)
}

func summary(changes []models.ChangeRecord) string {
	if len(changes) == 0 {
		return "No availability changes since the previous scan."
	}

	counts := models.CountByKind(changes)

	return fmt.Sprintf("%d new, %d changed, %d removed since the previous scan.",
		counts[models.ChangeNew], counts[models.ChangeChanged], counts[models.ChangeRemoved])
}

func buildSections(changes []models.ChangeRecord) []section {
	sections := []section{
		{Key: string(models.PartiallySoldOut), Title: "1) Partially Sold-Out Products", Color: colorPartial},
		{Key: string(models.FullyAvailable), Title: "2) Fully Available Products", Color: colorAvailable},
		{Key: string(models.FullySoldOut), Title: "3) Fully Sold-Out Products", Color: colorSoldOut},
		{Key: sectionRemoved, Title: "4) Removed Products", Color: colorRemoved},
	}
	index := make(map[string]int, len(sections))
	for i, s := range sections {
		index[s.Key] = i
	}

	for _, c := range changes {
		key := string(c.Current)
		if c.Kind == models.ChangeRemoved {
			key = sectionRemoved
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		sections[i].Rows = append(sections[i].Rows, toRow(c))
	}

	return sections
}

// buildInventory groups every current product by classification, ordered by ID.
func buildInventory(current models.InventorySnapshot) []section {
	if len(current) == 0 {
		return nil
	}

	sections := []section{
		{Key: string(models.PartiallySoldOut), Color: colorPartial},
		{Key: string(models.FullyAvailable), Color: colorAvailable},
		{Key: string(models.FullySoldOut), Color: colorSoldOut},
	}
	index := make(map[string]int, len(sections))
	for i, s := range sections {
		index[s.Key] = i
	}

	for _, id := range current.IDs() {
		p := current[id]
		i, ok := index[string(p.Classification)]
		if !ok {
			continue
		}
		sections[i].Rows = append(sections[i].Rows, row{
			ID:        p.ID,
			Name:      p.Title,
			URL:       p.URL,
			Change:    p.Classification.Label(),
			Available: joinSizes(p.Available),
			SoldOut:   joinSizes(p.SoldOut),
			Price:     formatPrice(p.PriceFrom),
		})
	}

	for i := range sections {
		label := models.Classification(sections[i].Key).Label()
		sections[i].Title = fmt.Sprintf("%s Products (%d)", label, len(sections[i].Rows))
	}

	return sections
}

func formatPrice(price decimal.NullDecimal) string {
	if !price.Valid {
		return "-"
	}

	return price.Decimal.StringFixed(2)
}

func toRow(c models.ChangeRecord) row {
	return row{
		ID:        c.ID,
		Name:      c.Title,
		URL:       c.URL,
		Change:    describeChange(c),
		Available: joinSizes(c.Available),
		SoldOut:   joinSizes(c.SoldOut),
		Changed:   joinSizes(c.ChangedSizes),
		Price:     formatPrice(c.PriceFrom),
	}
}

func describeChange(c models.ChangeRecord) string {
	switch c.Kind {
	case models.ChangeNew:
		return "New: " + c.Current.Label()
	case models.ChangeRemoved:
		return "Removed (was " + c.Previous.Label() + ")"
	default:
		if c.Previous == c.Current {
			return "Sizes changed: " + c.Current.Label()
		}
		return c.Previous.Label() + " → " + c.Current.Label()
	}
}

func joinSizes(sizes []string) string {
	if len(sizes) == 0 {
		return none
	}

	return strings.Join(sizes, ", ")
}
