package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Account is the identity printed in every statement header.
type Account struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

func (a Account) String() string {
	return fmt.Sprintf("%s/%s", a.Number, a.Name)
}

// CompareDates orders calendar dates ascending, for use with slices.SortFunc.
func CompareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
