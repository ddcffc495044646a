package report

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	rule       = "--------------------------------"
	doubleRule = "================================"
)

// PlainText derives the text/plain alternative of a rendered report.
func PlainText(document string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	var lines []string
	lines = append(lines, strings.TrimSpace(doc.Find("h1").First().Text()))
	if summary := strings.TrimSpace(doc.Find("p.summary").First().Text()); summary != "" {
		lines = append(lines, summary)
	}

	doc.Find("h2.section, h2.inventory-title, h3.inventory-section").Each(func(_ int, heading *goquery.Selection) {
		if heading.HasClass("inventory-title") {
			lines = append(lines, "", strings.TrimSpace(heading.Text()), doubleRule)
			return
		}
		lines = append(lines, "", strings.TrimSpace(heading.Text()), rule)

		table := heading.NextFiltered("table")
		var headers []string
		table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(th.Text()))
		})

		items := table.Find("tbody tr.item")
		if items.Length() == 0 {
			lines = append(lines, "None.")
			return
		}

		items.Each(func(_ int, tr *goquery.Selection) {
			tr.Find("td").Each(func(i int, td *goquery.Selection) {
				value := strings.TrimSpace(td.Text())
				if i == 0 {
					if href, ok := td.Find("a").Attr("href"); ok {
						value = fmt.Sprintf("%s <%s>", value, href)
					}
					lines = append(lines, "* "+value)
					return
				}
				label := ""
				if i < len(headers) {
					label = headers[i]
				}
				lines = append(lines, fmt.Sprintf("  %s: %s", label, value))
			})
		})
	})

	return strings.Join(lines, "\n") + "\n", nil
}
