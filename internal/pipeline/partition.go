package pipeline

import (
	"fmt"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"
)

// requireCountries checks that p holds a table for every supported country.
func requireCountries(p dataset.Partition) error {
	for _, c := range dataset.Countries {
		if p[c] == nil {
			return errors.Newf(errors.CodeInvalidParameter, "partition has no table for %s", c)
		}
	}
	return nil
}

// concatCountries stacks the country tables in SK, US order and asserts the
// partition-sum invariant.
func concatCountries(p dataset.Partition, stage string) (*dataset.Table, error) {
	if err := requireCountries(p); err != nil {
		return nil, err
	}
	tables := make([]*dataset.Table, 0, len(dataset.Countries))
	for _, c := range dataset.Countries {
		tables = append(tables, p[c])
	}
	merged, err := dataset.Concat(tables...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: concat countries", stage)
	}
	if err := assertRowSum(merged, p, stage); err != nil {
		return nil, err
	}
	return merged, nil
}

func assertRowSum(merged *dataset.Table, p dataset.Partition, stage string) error {
	want := 0
	for _, c := range dataset.Countries {
		want += p[c].NumRows()
	}
	if merged.NumRows() != want {
		return errors.InvariantViolation(fmt.Sprintf(
			"%s: merged row count %d != sum of country row counts %d", stage, merged.NumRows(), want))
	}
	return nil
}

// mapCountries applies fn to each country table in order and collects the
// results into a new partition.
func mapCountries(p dataset.Partition, fn func(dataset.Country, *dataset.Table) (*dataset.Table, error)) (dataset.Partition, error) {
	if err := requireCountries(p); err != nil {
		return nil, err
	}
	out := make(dataset.Partition, len(dataset.Countries))
	for _, c := range dataset.Countries {
		t, err := fn(c, p[c])
		if err != nil {
			return nil, errors.Wrapf(err, "%s", c)
		}
		out[c] = t
	}
	return out, nil
}
