// Package paginate slices ordered sequences into stable pages. Pages are
// keyed by a filter fingerprint: whenever the fingerprint changes, the
// current page resets to the first page so a narrowed filter can never
// leave the caller stranded on an out-of-range page. The page-size
// preference persists across sessions through an injected key-value store.
package paginate

import "strconv"

// Page size bounds. A persisted or requested size outside this range is
// clamped, never rejected.
const (
	DefaultPageSize = 20
	MinPageSize     = 5
	MaxPageSize     = 200
)

// PrefStore is the injected keyed preference store. Implementations need no
// locking; the paginator assumes a single active caller.
type PrefStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemStore is an in-memory PrefStore for tests and ephemeral callers.
type MemStore map[string]string

func (s MemStore) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

func (s MemStore) Set(key, value string) {
	s[key] = value
}

// Page describes one resolved page over a sequence of Total items. Start
// and End are half-open slice bounds into the ordered sequence.
type Page struct {
	Page      int
	PageCount int
	PageSize  int
	Total     int
	Start     int
	End       int
}

// Paginator tracks the current page for one named pagination instance.
type Paginator struct {
	prefs       PrefStore
	key         string
	page        int
	pageSize    int
	fingerprint string
	hasPrint    bool
	total       int
}

// New creates a paginator whose page size is loaded from prefs under the
// given key, falling back to defaultSize (clamped).
func New(prefs PrefStore, key string, defaultSize int) *Paginator {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	p := &Paginator{
		prefs:    prefs,
		key:      key,
		page:     1,
		pageSize: clampSize(defaultSize),
	}
	if raw, ok := prefs.Get(prefKey(key)); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			p.pageSize = clampSize(n)
		}
	}
	return p
}

func prefKey(key string) string {
	return "pagesize:" + key
}

func clampSize(n int) int {
	if n < MinPageSize {
		return MinPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Update resolves the current page for a sequence of total items under the
// given filter fingerprint. A fingerprint change resets to page 1 even if
// the caller never requested it; an unchanged fingerprint keeps the page,
// clamped into the valid range.
func (p *Paginator) Update(total int, fingerprint string) Page {
	if !p.hasPrint || fingerprint != p.fingerprint {
		p.fingerprint = fingerprint
		p.hasPrint = true
		p.page = 1
	}
	p.total = total
	return p.resolve()
}

// Current re-resolves the page against the last Update inputs.
func (p *Paginator) Current() Page {
	return p.resolve()
}

func (p *Paginator) resolve() Page {
	count := pageCount(p.total, p.pageSize)
	if p.page > count {
		p.page = count
	}
	if p.page < 1 {
		p.page = 1
	}

	start := (p.page - 1) * p.pageSize
	if start > p.total {
		start = p.total
	}
	end := start + p.pageSize
	if end > p.total {
		end = p.total
	}

	return Page{
		Page:      p.page,
		PageCount: count,
		PageSize:  p.pageSize,
		Total:     p.total,
		Start:     start,
		End:       end,
	}
}

func pageCount(total, size int) int {
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// First moves to the first page.
func (p *Paginator) First() Page {
	p.page = 1
	return p.resolve()
}

// Prev moves one page back, stopping at the first page.
func (p *Paginator) Prev() Page {
	if p.page > 1 {
		p.page--
	}
	return p.resolve()
}

// Next moves one page forward, stopping at the last page.
func (p *Paginator) Next() Page {
	if p.page < pageCount(p.total, p.pageSize) {
		p.page++
	}
	return p.resolve()
}

// Last moves to the last page.
func (p *Paginator) Last() Page {
	p.page = pageCount(p.total, p.pageSize)
	return p.resolve()
}

// SetPageSize changes and persists the page size. The current page is kept
// unless the shrunken page count puts it out of range, in which case it
// clamps to the last valid page.
func (p *Paginator) SetPageSize(n int) Page {
	p.pageSize = clampSize(n)
	p.prefs.Set(prefKey(p.key), strconv.Itoa(p.pageSize))
	return p.resolve()
}

// Slice applies resolved page bounds to an ordered sequence.
func Slice[T any](items []T, pg Page) []T {
	if pg.Start >= len(items) {
		return nil
	}
	end := pg.End
	if end > len(items) {
		end = len(items)
	}
	return items[pg.Start:end]
}
