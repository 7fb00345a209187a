// Package county indexes county assessment-roll exports and parcel geometry
// so the county source adapter can answer address lookups locally.
package county

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lotline/property-cli/internal/fetcher"
)

// RollEntry is one property row from a county assessment roll.
type RollEntry struct {
	ParcelNumber  string
	SitusAddress  string
	City          string
	State         string
	Zip           string
	YearBuilt     int
	LivingArea    float64
	LotSize       string
	Stories       int
	Bedrooms      int
	Bathrooms     float64
	Zoning        string
	AssessedValue float64
	TaxAnnual     float64
	LastSalePrice float64
	LastSaleDate  string
}

// Index holds roll entries keyed by normalized situs address, with optional
// parcel centroid geometry attached.
type Index struct {
	byAddress map[string]*RollEntry
	parcels   *ParcelIndex
}

// NewIndex creates an empty roll index.
func NewIndex() *Index {
	return &Index{byAddress: make(map[string]*RollEntry)}
}

// WithParcels attaches parcel geometry for centroid lookups.
func (ix *Index) WithParcels(p *ParcelIndex) *Index {
	ix.parcels = p
	return ix
}

// Add inserts a roll entry, overwriting any prior entry at the same situs.
func (ix *Index) Add(e RollEntry) {
	key := normalizeSitus(e.SitusAddress)
	if key == "" {
		return
	}
	entry := e
	ix.byAddress[key] = &entry
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return len(ix.byAddress) }

// Lookup finds the roll entry for a free-text address. Matching uses the
// street segment only: county rolls key by situs, not full mailing address.
func (ix *Index) Lookup(address string) (*RollEntry, bool) {
	e, ok := ix.byAddress[normalizeSitus(address)]
	return e, ok
}

// Centroid returns the parcel centroid for an entry when parcel geometry
// was loaded.
func (ix *Index) Centroid(parcelNumber string) (lat, lng float64, ok bool) {
	if ix.parcels == nil {
		return 0, 0, false
	}
	return ix.parcels.Centroid(parcelNumber)
}

// rollColumns maps the header vocabulary counties use to RollEntry fields.
// Rolls disagree on naming; all observed variants are listed lowercase.
var rollColumns = map[string]string{
	"parcel_number": "parcel", "parcel_id": "parcel", "apn": "parcel", "account_num": "parcel",
	"situs_address": "situs", "situs": "situs", "property_address": "situs",
	"city": "city", "situs_city": "city",
	"state": "state",
	"zip": "zip", "zip_code": "zip", "situs_zip": "zip",
	"year_built": "year_built", "yr_built": "year_built",
	"living_area": "living_area", "living_area_sqft": "living_area", "bldg_sqft": "living_area",
	"lot_size": "lot_size", "land_sqft": "lot_size", "land_acres": "lot_size",
	"stories": "stories", "num_stories": "stories",
	"bedrooms": "bedrooms", "num_bedrooms": "bedrooms",
	"bathrooms": "bathrooms", "num_bathrooms": "bathrooms",
	"zoning": "zoning", "zone_code": "zoning",
	"assessed_value": "assessed", "total_value": "assessed",
	"tax_annual": "tax", "tax_amount": "tax",
	"last_sale_price": "sale_price", "sale_price": "sale_price",
	"last_sale_date": "sale_date", "deed_date": "sale_date",
}

// LoadCSV streams a roll CSV into an index. The first row must be a header;
// unknown columns are ignored, and rows without a situs address are skipped.
func LoadCSV(ctx context.Context, r io.Reader) (*Index, error) {
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{TrimSpace: true})

	ix := NewIndex()
	var cols map[int]string
	skipped := 0
	for row := range rowCh {
		if cols == nil {
			cols = mapHeader(row)
			continue
		}
		entry, ok := rowToEntry(cols, row)
		if !ok {
			skipped++
			continue
		}
		ix.Add(entry)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "county: load roll csv")
	}
	if cols == nil {
		return nil, eris.New("county: roll csv is empty")
	}

	zap.L().Info("county: loaded roll",
		zap.Int("entries", ix.Len()),
		zap.Int("skipped", skipped),
	)
	return ix, nil
}

// LoadXLSX reads a roll XLSX export into an index.
func LoadXLSX(path string) (*Index, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "county: load roll xlsx")
	}
	if len(rows) == 0 {
		return nil, eris.New("county: roll xlsx is empty")
	}

	cols := mapHeader(rows[0])
	ix := NewIndex()
	for _, row := range rows[1:] {
		if entry, ok := rowToEntry(cols, row); ok {
			ix.Add(entry)
		}
	}
	return ix, nil
}

func mapHeader(header []string) map[int]string {
	cols := make(map[int]string, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if field, ok := rollColumns[key]; ok {
			cols[i] = field
		}
	}
	return cols
}

func rowToEntry(cols map[int]string, row []string) (RollEntry, bool) {
	var e RollEntry
	for i, field := range cols {
		if i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		switch field {
		case "parcel":
			e.ParcelNumber = v
		case "situs":
			e.SitusAddress = v
		case "city":
			e.City = v
		case "state":
			e.State = v
		case "zip":
			e.Zip = v
		case "year_built":
			e.YearBuilt = atoi(v)
		case "living_area":
			e.LivingArea = atof(v)
		case "lot_size":
			e.LotSize = v
		case "stories":
			e.Stories = atoi(v)
		case "bedrooms":
			e.Bedrooms = atoi(v)
		case "bathrooms":
			e.Bathrooms = atof(v)
		case "zoning":
			e.Zoning = v
		case "assessed":
			e.AssessedValue = atof(v)
		case "tax":
			e.TaxAnnual = atof(v)
		case "sale_price":
			e.LastSalePrice = atof(v)
		case "sale_date":
			e.LastSaleDate = v
		}
	}
	return e, e.SitusAddress != ""
}

var situsPunct = regexp.MustCompile(`[^A-Z0-9 ]`)
var situsSpace = regexp.MustCompile(`\s+`)

// normalizeSitus canonicalizes an address for lookup: street segment only,
// uppercased, punctuation stripped, whitespace collapsed.
func normalizeSitus(address string) string {
	street := address
	if i := strings.Index(street, ","); i >= 0 {
		street = street[:i]
	}
	street = strings.ToUpper(strings.TrimSpace(street))
	street = situsPunct.ReplaceAllString(street, "")
	street = situsSpace.ReplaceAllString(street, " ")
	return strings.TrimSpace(street)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}
