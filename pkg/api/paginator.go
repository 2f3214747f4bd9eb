package api

import "context"

// Paginator walks a paginated list endpoint page by page.
type Paginator[T any] struct {
	fetch func(ctx context.Context, page int) (Page[T], error)

	currentPage int
	lastPage    int
	done        bool
}

func newPaginator[T any](fetch func(ctx context.Context, page int) (Page[T], error)) *Paginator[T] {
	return &Paginator[T]{fetch: fetch}
}

// CurrentPage returns the page number of the most recently fetched page, or
// zero before the first fetch.
func (p *Paginator[T]) CurrentPage() int { return p.currentPage }

// Done reports whether the last page has been fetched.
func (p *Paginator[T]) Done() bool { return p.done }

// GetNext fetches the next page. After the last page it returns a nil slice
// and no error.
func (p *Paginator[T]) GetNext(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}

	page, err := p.fetch(ctx, p.currentPage+1)
	if err != nil {
		return nil, err
	}

	p.currentPage = page.Meta.CurrentPage
	if p.currentPage == 0 {
		p.currentPage++
	}
	p.lastPage = page.Meta.LastPage
	if p.lastPage == 0 || p.currentPage >= p.lastPage {
		p.done = true
	}
	return page.Data, nil
}

// GetAll fetches every remaining page and concatenates the results.
func (p *Paginator[T]) GetAll(ctx context.Context) ([]T, error) {
	var all []T
	for !p.done {
		items, err := p.GetNext(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}
