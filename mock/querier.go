package mock

import "github.com/kalisz/bookdl"

var _ bookdl.Querier = (*Querier)(nil)

// Querier is a mock implementation of bookdl.Querier.
type Querier struct {
	QueryFn func(markup, selector string) ([]bookdl.Node, error)
}

func (q *Querier) Query(markup, selector string) ([]bookdl.Node, error) {
	return q.QueryFn(markup, selector)
}
