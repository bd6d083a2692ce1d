package ring

import (
	"reflect"
	"testing"
)

var bufferTests = []struct {
	name string
	ops  func() any
	want any
}{
	{
		name: "new_4_float64",
		ops: func() any {
			return NewBuffer[float64](4)
		},
		want: &Buffer[float64]{data: make([]float64, 4)},
	},
	{
		name: "new_4_float64_write_2",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2)
			return r
		},
		want: &Buffer[float64]{data: []float64{1, 2, 0, 0}, start: 0, n: 2},
	},
	{
		name: "new_4_float64_write_2_1",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2)
			r.Write(3)
			return r
		},
		want: &Buffer[float64]{data: []float64{1, 2, 3, 0}, start: 0, n: 3},
	},
	{
		name: "new_4_float64_write_2_adv1_1",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2)
			r.Advance(1)
			r.Write(3)
			return r
		},
		want: &Buffer[float64]{data: []float64{1, 2, 3, 0}, start: 1, n: 2},
	},
	{
		name: "new_4_float64_write_2_3",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2)
			r.Write(3, 4, 5)
			return r
		},
		want: &Buffer[float64]{data: []float64{5, 2, 3, 4}, start: 1, n: 4},
	},
	{
		name: "new_4_float64_write_3_2",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2, 3)
			r.Write(4, 5)
			return r
		},
		want: &Buffer[float64]{data: []float64{5, 2, 3, 4}, start: 1, n: 4},
	},
	{
		name: "new_4_float64_write_5",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2, 3, 4, 5)
			return r
		},
		want: &Buffer[float64]{data: []float64{2, 3, 4, 5}, start: 0, n: 4},
	},
	{
		name: "new_4_float64_write_4_adv2_1_read",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2, 3, 4)
			r.Advance(2)
			r.Write(5)
			var buf [4]float64
			n := r.Read(buf[:])
			return []any{r, buf[:n]}
		},
		want: []any{
			&Buffer[float64]{data: []float64{5, 2, 3, 4}, start: 1, n: 0},
			[]float64{3, 4, 5},
		},
	},
	{
		name: "new_4_float64_write_4_adv2_1_copy",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2, 3, 4)
			r.Advance(2)
			r.Write(5)
			var buf [4]float64
			n := r.CopyTo(buf[:])
			return []any{r, buf[:n]}
		},
		want: []any{
			&Buffer[float64]{data: []float64{5, 2, 3, 4}, start: 2, n: 3},
			[]float64{3, 4, 5},
		},
	},
	{
		name: "wrapped_short_dst",
		ops: func() any {
			var buf [2]float64
			r := &Buffer[float64]{
				data:  []float64{1, 2, 3, 4, 5, 6, 7, 8},
				start: 7, n: 4,
			}
			n := r.CopyTo(buf[:])
			return buf[:n]
		},
		want: []float64{8, 1},
	},
	{
		name: "wrapped_values",
		ops: func() any {
			r := &Buffer[float64]{
				data:  []float64{1, 2, 3, 4, 5, 6, 7, 8},
				start: 6, n: 5,
			}
			return r.Values()
		},
		want: []float64{7, 8, 1, 2, 3},
	},
	{
		name: "advance_past_len",
		ops: func() any {
			r := NewBuffer[float64](4)
			r.Write(1, 2)
			r.Advance(10)
			return []any{r.Len(), r.Values()}
		},
		want: []any{0, []float64{}},
	},
	{
		name: "reset",
		ops: func() any {
			r := NewBuffer[float64](3)
			r.Write(1, 2, 3, 4)
			r.Reset()
			r.Write(9)
			return r.Values()
		},
		want: []float64{9},
	},
	{
		name: "zero_size",
		ops: func() any {
			r := NewBuffer[float64](0)
			r.Write(1, 2)
			r.Advance(1)
			return []any{r.Len(), r.Size(), r.Values()}
		},
		want: []any{0, 0, []float64{}},
	},
}

func TestBuffer(t *testing.T) {
	for _, test := range bufferTests {
		t.Run(test.name, func(t *testing.T) {
			got := test.ops()
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("expected result:\ngot: %#v\nwant:%#v", got, test.want)
			}
		})
	}
}
