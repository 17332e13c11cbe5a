package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Name         string
	Path         string
	Price        string
	Availability string
}

func TestAltexExtractorFindsAllListings(t *testing.T) {
	listings := []listing{
		{Name: "Casti Apple AirPods 3", Path: "/casti-airpods-3/cpd/A1/", Price: "899", Availability: "In stoc"},
		{Name: "Casti Apple AirPods Pro 2", Path: "/casti-airpods-pro-2/cpd/A2/", Price: "1.199", Availability: "Stoc limitat"},
		{Name: "Casti Apple AirPods Max", Path: "/casti-airpods-max/cpd/A3/", Price: "2.799", Availability: "Indisponibil"},
	}
	ts := newTestServer(map[string]string{"/cauta/": altexPage(listings)})
	defer ts.Close()

	ex := NewAltexExtractor(testOptions(ts.URL + "/cauta/?q=AirPods"))
	records, err := ex.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, records, len(listings))

	for i, l := range listings {
		assert.Equal(t, l.Name, records[i].Name)
		assert.Equal(t, ts.URL+l.Path, records[i].Link)
		assert.Equal(t, l.Price, records[i].PriceText)
		assert.Equal(t, l.Availability, records[i].AvailabilityText)
	}
}

func TestAltexExtractorEmptyPage(t *testing.T) {
	ts := newTestServer(map[string]string{"/cauta/": altexPage(nil)})
	defer ts.Close()

	records, err := NewAltexExtractor(testOptions(ts.URL + "/cauta/")).Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAltexExtractorRetriesTransientFailures(t *testing.T) {
	var hits int32
	page := altexPage([]listing{{Name: "Casti Apple AirPods 4", Path: "/a4/", Price: "749", Availability: "In stoc"}})

	mux := http.NewServeMux()
	mux.HandleFunc("/cauta/", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	opts := testOptions(ts.URL + "/cauta/")
	opts.HTTPRetryMax = 1
	records, err := NewAltexExtractor(opts).Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestAltexExtractorReportsFailedRequests(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	records, err := NewAltexExtractor(testOptions(ts.URL + "/cauta/")).Extract(context.Background())
	assert.Error(t, err)
	assert.Empty(t, records)
}

func TestFlancoExtractorZipsListings(t *testing.T) {
	listings := []listing{
		{Name: "Casti Apple AirPods Pro 2", Path: "/casti-airpods-pro-2.html", Price: "1.299,99 lei", Availability: "In stoc"},
		{Name: "Casti Apple AirPods Max", Path: "/casti-airpods-max.html", Price: "2.599,99 lei", Availability: "Stoc epuizat"},
	}
	ts := newTestServer(map[string]string{"/catalogsearch/result/": flancoPage(listings, "")})
	defer ts.Close()

	records, err := NewFlancoExtractor(testOptions(ts.URL + "/catalogsearch/result/?q=casti")).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	for i, l := range listings {
		assert.Equal(t, RawRecord{
			Name:             l.Name,
			PriceText:        l.Price,
			AvailabilityText: l.Availability,
			Link:             ts.URL + l.Path,
		}, records[i])
	}
}

func TestFlancoExtractorLayoutMismatch(t *testing.T) {
	listings := []listing{
		{Name: "Casti Apple AirPods 3", Path: "/casti-airpods-3.html", Price: "899,99 lei", Availability: "In stoc"},
	}
	extra := `<span class="singlePrice">19,99 lei</span>`
	ts := newTestServer(map[string]string{"/catalogsearch/result/": flancoPage(listings, extra)})
	defer ts.Close()

	records, err := NewFlancoExtractor(testOptions(ts.URL + "/catalogsearch/result/")).Extract(context.Background())
	assert.ErrorIs(t, err, ErrLayoutMismatch)
	assert.Empty(t, records)
}

func TestExtractorsVisitPagesInOrder(t *testing.T) {
	ts := newTestServer(map[string]string{
		"/page1": flancoPage([]listing{{Name: "Casti 1", Path: "/1.html", Price: "1 lei", Availability: "In stoc"}}, ""),
		"/page2": flancoPage([]listing{{Name: "Casti 2", Path: "/2.html", Price: "2 lei", Availability: "In stoc"}}, ""),
		"/page3": flancoPage([]listing{{Name: "Casti 3", Path: "/3.html", Price: "3 lei", Availability: "In stoc"}}, ""),
	})
	defer ts.Close()

	opts := testOptions(ts.URL+"/page1", ts.URL+"/page2", ts.URL+"/page3")
	records, err := NewFlancoExtractor(opts).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, fmt.Sprintf("Casti %d", i+1), r.Name)
	}
}

func TestExtractorFetchesFreshStateOnEveryCall(t *testing.T) {
	var hits int32
	page := altexPage([]listing{{Name: "Casti Apple AirPods 4", Path: "/a4/", Price: "749", Availability: "In stoc"}})
	mux := http.NewServeMux()
	mux.HandleFunc("/cauta/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ex := NewAltexExtractor(testOptions(ts.URL + "/cauta/"))
	for i := 0; i < 2; i++ {
		records, err := ex.Extract(context.Background())
		require.NoError(t, err)
		assert.Len(t, records, 1)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func testOptions(urls ...string) Options {
	return Options{StartURLs: urls}
}

func newTestServer(pages map[string]string) *httptest.Server {
	mux := http.NewServeMux()
	for path, page := range pages {
		page := page
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(page))
		})
	}
	return httptest.NewServer(mux)
}

func altexPage(ls []listing) string {
	items := []string{}
	for _, l := range ls {
		items = append(items, fmt.Sprintf(`
			<li>
				<div>
					<div><a href="%s"><span class="Product-name Heading">%s</span></a></div>
					<div>%s</div>
					<div><div><div><span><span>%s</span><sup>,99</sup></span></div></div></div>
				</div>
			</li>`, l.Path, l.Name, l.Availability, l.Price))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ro">
	<body>
		<main>
			<ul class="breadcrumbs"><li><a href="/">Acasa</a></li></ul>
			<ul class="products">%s
			</ul>
		</main>
	</body>
</html>`, strings.Join(items, "\n"))
}

func flancoPage(ls []listing, extra string) string {
	items := []string{}
	for _, l := range ls {
		items = append(items, fmt.Sprintf(`
			<div class="product-item">
				<a class="product-item-link" href="%[1]s"><img src="/img.png"></a>
				<h2><a class="product-item-link" href="%[1]s">%[2]s</a></h2>
				<span class="singlePrice">%[3]s</span>
				<span class="stocky-txt">%[4]s</span>
			</div>`, l.Path, l.Name, l.Price, l.Availability))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ro">
	<body>
		%s
		%s
	</body>
</html>`, strings.Join(items, "\n"), extra)
}
