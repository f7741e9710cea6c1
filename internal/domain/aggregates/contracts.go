package aggregates

import "strings"

// Contract names an aggregate and the tables it alone writes. Services and
// handlers read those tables through repos; every write goes through the
// aggregate in a transaction it owns.
type Contract struct {
	Name   string
	Tables []string
}

// Aggregate is implemented by every aggregate.
type Aggregate interface {
	Contract() Contract
}

// Op labels one write method in errors, logs and metrics.
func (c Contract) Op(method string) string {
	return c.Name + "." + strings.TrimSpace(method)
}

func (c Contract) Owns(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}
