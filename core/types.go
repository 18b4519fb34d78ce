// Package core defines the shared types, format registry and report output
// for exif-report.
package core

// Report categories. Keys inside a category carry the category as prefix
// (e.g. "Exif_Make" lives in CatExif).
const (
	CatFile      = "FILE"
	CatImage     = "IMAGE"
	CatInfo      = "INFO"
	CatExif      = "Exif"
	CatGPS       = "GPS"
	CatMakerNote = "MakerNote"
	CatThumbnail = "THUMBNAIL"
	CatXMP       = "XMP"
	CatIPTC      = "IPTC"
	CatImageMeta = "IMAGEMETA"
	CatExifTool  = "EXIFTOOL"
	CatICC       = "ICC"
	CatProfile   = "PROFILE"
	CatRaw       = "RAW"
)

// Entry is a single metadata key-value pair.
type Entry struct {
	Category string // Report section (e.g. "FILE", "Exif", "ICC")
	Key      string // Full report key (e.g. "Exif_Make")
	Value    string // String representation of the value
	Source   string // Extraction method that produced it
}

// NewEntry builds an Entry whose key is name prefixed with the category.
func NewEntry(category, name, value, source string) Entry {
	return Entry{Category: category, Key: category + "_" + name, Value: value, Source: source}
}

// Result accumulates the metadata found for one file across all methods.
// Entries keep discovery order within their category. It is not safe for
// concurrent use; each file owns its Result.
type Result struct {
	order   []string
	entries map[string][]Entry
	index   map[string]map[string]int
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{
		entries: make(map[string][]Entry),
		index:   make(map[string]map[string]int),
	}
}

// Set records e. A key already present in the category is updated in place
// unless the new value is empty, so the last non-empty writer wins.
func (r *Result) Set(e Entry) {
	idx, ok := r.index[e.Category]
	if !ok {
		idx = make(map[string]int)
		r.index[e.Category] = idx
		r.order = append(r.order, e.Category)
	}
	if i, exists := idx[e.Key]; exists {
		if e.Value == "" {
			return
		}
		r.entries[e.Category][i] = e
		return
	}
	idx[e.Key] = len(r.entries[e.Category])
	r.entries[e.Category] = append(r.entries[e.Category], e)
}

// Merge sets every entry in order.
func (r *Result) Merge(entries ...Entry) {
	for _, e := range entries {
		r.Set(e)
	}
}

// Get returns the entry stored under key in category.
func (r *Result) Get(category, key string) (Entry, bool) {
	i, ok := r.index[category][key]
	if !ok {
		return Entry{}, false
	}
	return r.entries[category][i], true
}

// Categories returns the non-empty categories in discovery order.
func (r *Result) Categories() []string {
	out := make([]string, 0, len(r.order))
	for _, c := range r.order {
		if len(r.entries[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Entries returns the entries of one category in discovery order.
func (r *Result) Entries(category string) []Entry {
	return r.entries[category]
}

// Len is the total number of entries.
func (r *Result) Len() int {
	n := 0
	for _, es := range r.entries {
		n += len(es)
	}
	return n
}

// Find returns the first entry, in category discovery order, for which match
// reports true.
func (r *Result) Find(match func(Entry) bool) (Entry, bool) {
	for _, c := range r.order {
		for _, e := range r.entries[c] {
			if match(e) {
				return e, true
			}
		}
	}
	return Entry{}, false
}
