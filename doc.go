// Package collectas collects an arbitrary input sequence into a container of a
// caller-described output type.
//
// A Descriptor names the wanted container at any level of detail: the kind
// alone (Set, Slice, Buffer, TupleOf), kind plus element type, or a fully
// concrete Go type via Of/TypeOf. Missing pieces are resolved from what the
// sequence declares about itself (element type, length, shape, finiteness)
// and, when elements disagree, by widening the working element type along a
// small numeric/interface lattice.
//
// Design policy:
//   - Keep only public APIs in the root package; put the lattice, the
//     accumulators and stream helpers under internal/.
//   - Sequence helpers live under seq/, decoding sources under source/.
//   - Failures are reported as Issues with stable codes; sentinel errors are
//     reachable through errors.Is.
//
// Typical usage:
//
//	v, err := collectas.CollectAs(collectas.Set(), []int{1, 1, 2})
//	// v is map[int]struct{}{1: {}, 2: {}}
//
//	grid, err := collectas.Into[[][]float64](seq.Shape(seq.Of(1, 2, 3, 4), 2, 2))
//
//	toSet := collectas.Collector(collectas.Set().Elem(reflect.TypeFor[string]()))
//	names, err := toSet(rows)
package collectas
