package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/UnknownOlympus/landscout/internal/models"
	"golang.org/x/text/unicode/norm"
)

// ResultPage is one parsed snapshot of the results view.
type ResultPage struct {
	TableFound bool         // TableFound is false when the results table is missing.
	NoResults  bool         // NoResults is set for an empty table or the "no results" marker row.
	Rows       []models.Row // Rows holds the data rows in table order.

	doc *goquery.Document
}

// ParseResultPage reads the results table out of the page HTML.
func ParseResultPage(html string) (*ResultPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	page := &ResultPage{doc: doc}

	table := doc.Find(ResultTable).First()
	if table.Length() == 0 {
		return page, nil
	}
	page.TableFound = true

	trs := table.Find("tr")
	if trs.Length() == 0 || (trs.Length() == 1 && strings.Contains(trs.Text(), NoResultsMarker)) {
		page.NoResults = true
		return page, nil
	}

	page.Rows = ExtractRows(trs)

	return page, nil
}

// ExtractRows turns table rows into scraped rows. Rows with at most one
// cell are header or separator artifacts and are dropped.
func ExtractRows(trs *goquery.Selection) []models.Row {
	var rows []models.Row

	trs.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= 1 {
			return
		}

		row := make(models.Row, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, CleanText(td.Text()))
		})
		rows = append(rows, row)
	})

	return rows
}

// CleanText trims a cell, collapses inner whitespace and normalizes it to NFC.
func CleanText(text string) string {
	return norm.NFC.String(strings.Join(strings.Fields(text), " "))
}

// NextPageSelector returns a selector for the link to page num. Links whose
// onclick calls fn_link_page(num) win over links whose text is num. Links
// inside the results table never count as page links.
func (p *ResultPage) NextPageSelector(num int) (string, bool) {
	onclick := fmt.Sprintf("a[onclick*='fn_link_page(%d)']", num)
	if p.doc.Find(onclick).Length() > 0 {
		return onclick, true
	}

	label := strconv.Itoa(num)
	found := false
	p.doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.Closest(ResultTable).Length() > 0 {
			return true
		}
		found = strings.TrimSpace(a.Text()) == label
		return !found
	})
	if found {
		return pageTextSelector(label), true
	}

	return "", false
}

// pageTextSelector matches a link whose trimmed text is label, outside the results table.
func pageTextSelector(label string) string {
	return fmt.Sprintf(`xpath=//a[normalize-space()=%q][not(ancestor::*[@id=%q])]`,
		label, strings.TrimPrefix(ResultTable, "#"))
}

// ParseDistricts lists the district options of the search form, skipping
// the citywide option and empty values.
func ParseDistricts(html string) ([]models.District, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search form: %w", err)
	}

	var districts []models.District
	doc.Find(DistrictSelect + " option").Each(func(_ int, opt *goquery.Selection) {
		code := strings.TrimSpace(opt.AttrOr("value", ""))
		if code == "" || code == models.CitywideCode {
			return
		}
		districts = append(districts, models.District{Code: code, Name: CleanText(opt.Text())})
	})

	return districts, nil
}
