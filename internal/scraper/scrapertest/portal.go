// Package scrapertest provides a scripted in-memory portal for testing code
// that drives scraper.Page.
package scrapertest

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/scraper"
)

// ErrNotVisible is returned by WaitVisible when the selector matches nothing.
var ErrNotVisible = errors.New("selector not visible")

var pageLink = regexp.MustCompile(`fn_link_page\((\d+)\)|normalize-space\(\)="(\d+)"`)

// Portal is a fake search form. Results maps a district code to the HTML of
// each of its result pages; page 1 is shown after the search button is clicked.
type Portal struct {
	Landing string
	Results map[string][]string

	mu       sync.Mutex
	current  string
	district string
	calls    []string
	filled   map[string]string
}

// NewPortal creates a portal whose form lists the given districts.
func NewPortal(districts []models.District, results map[string][]string) *Portal {
	return &Portal{
		Landing: LandingHTML(districts),
		Results: results,
		filled:  map[string]string{},
	}
}

var _ scraper.Page = (*Portal)(nil)

// Goto shows the search form again.
func (p *Portal) Goto(_ context.Context, url string) error {
	p.record("goto " + url)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.Landing

	return nil
}

// WaitVisible fails immediately when the selector matches nothing in the current HTML.
func (p *Portal) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(current))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNotVisible, selector)
	}

	return nil
}

// Content returns the HTML currently shown.
func (p *Portal) Content(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current, nil
}

// Select remembers the chosen district.
func (p *Portal) Select(_ context.Context, selector, value string) error {
	p.record("select " + selector + "=" + value)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.district = value

	return nil
}

// Fill remembers the typed value.
func (p *Portal) Fill(_ context.Context, selector, value string) error {
	p.record("fill " + selector + "=" + value)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filled[selector] = value

	return nil
}

// Click submits the search or follows a page link.
func (p *Portal) Click(_ context.Context, selector string) error {
	p.record("click " + selector)
	p.mu.Lock()
	defer p.mu.Unlock()

	if selector == scraper.SearchButton {
		return p.show(1)
	}

	match := pageLink.FindStringSubmatch(selector)
	if match == nil {
		return fmt.Errorf("%w: %s", ErrNotVisible, selector)
	}
	num, _ := strconv.Atoi(match[1] + match[2])

	return p.show(num)
}

// Pause does not sleep.
func (p *Portal) Pause(_ context.Context, d time.Duration) {
	p.record("pause " + d.String())
}

// Calls returns the interactions in order, for example "click #search".
func (p *Portal) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.calls...)
}

// Filled returns the last value typed into selector.
func (p *Portal) Filled(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.filled[selector]
}

func (p *Portal) show(num int) error {
	pages := p.Results[p.district]
	if num < 1 || num > len(pages) {
		p.current = "<html><body></body></html>"
		return nil
	}
	p.current = pages[num-1]

	return nil
}

func (p *Portal) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

// LandingHTML renders a search form with a citywide option followed by the districts.
func LandingHTML(districts []models.District) string {
	var b strings.Builder
	b.WriteString(`<html><body><form><select id="selectSigungu"><option value="11000">서울시 전체</option>`)
	for _, d := range districts {
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, d.Code, html.EscapeString(d.Name))
	}
	b.WriteString(`</select><input id="changeBgnde" readonly><input id="changeEndde" readonly>`)
	b.WriteString(`<button id="search">검색</button></form></body></html>`)

	return b.String()
}

// ResultsHTML renders a results table. Links to the pages in onclickLinks use
// fn_link_page handlers; links in textLinks only carry the page number as text.
func ResultsHTML(rows [][]string, onclickLinks, textLinks []int) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><tbody id="resultList_pc">`)
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td> %s </td>", html.EscapeString(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</tbody></table><div class="paging">`)
	for _, n := range onclickLinks {
		fmt.Fprintf(&b, `<a href="#" onclick="fn_link_page(%d);return false;">%d</a>`, n, n)
	}
	for _, n := range textLinks {
		fmt.Fprintf(&b, `<a href="?pageIndex=%d"> %d </a>`, n, n)
	}
	b.WriteString(`</div></body></html>`)

	return b.String()
}

// NoResultsHTML renders the table the portal shows when nothing matches.
func NoResultsHTML() string {
	return `<html><body><table><tbody id="resultList_pc"><tr><td colspan="7">` +
		scraper.NoResultsMarker + `.</td></tr></tbody></table></body></html>`
}
