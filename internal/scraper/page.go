// Package scraper walks the land permit portal: it selects each district,
// submits the date range form and reads the paginated results table.
package scraper

import (
	"context"
	"time"
)

// Selectors and markers of the contract status search form.
const (
	DistrictSelect  = "#selectSigungu"
	StartDateInput  = "#changeBgnde"
	EndDateInput    = "#changeEndde"
	SearchButton    = "#search"
	ResultTable     = "#resultList_pc"
	NoResultsMarker = "조회된 내용이 없습니다"
)

// Page is the part of a browser page the driver needs.
// The portal package implements it with playwright.
type Page interface {
	Goto(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Content(ctx context.Context) (string, error)
	Select(ctx context.Context, selector, value string) error
	// Fill types value into the input, removing its readonly attribute first.
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// Pause sleeps for d or until ctx is done.
	Pause(ctx context.Context, d time.Duration)
}
